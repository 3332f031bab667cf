// Package docs registers the OpenAPI document served under /swagger.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {},
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "paths": {
        "/products": {
            "get": {"tags": ["products"], "summary": "List products", "parameters": [
                {"type": "string", "name": "category", "in": "query"},
                {"type": "integer", "name": "limit", "in": "query"},
                {"type": "integer", "name": "offset", "in": "query"}
            ], "responses": {"200": {"description": "OK"}}},
            "post": {"tags": ["products"], "summary": "Create product", "security": [{"BearerAuth": []}],
                "responses": {"201": {"description": "Created"}, "400": {"description": "Bad Request"}}}
        },
        "/products/search": {
            "get": {"tags": ["products"], "summary": "Search products", "parameters": [
                {"type": "string", "name": "q", "in": "query", "required": true},
                {"type": "string", "name": "category", "in": "query"}
            ], "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}}}
        },
        "/products/{id}": {
            "get": {"tags": ["products"], "summary": "Get product", "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}},
            "put": {"tags": ["products"], "summary": "Update product", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}}},
            "delete": {"tags": ["products"], "summary": "Delete product", "security": [{"BearerAuth": []}], "responses": {"204": {"description": "No Content"}}}
        },
        "/auth/register": {
            "post": {"tags": ["auth"], "summary": "Register a buyer account",
                "responses": {"201": {"description": "Created"}, "400": {"description": "Bad Request"}, "409": {"description": "Conflict"}}}
        },
        "/auth/login": {
            "post": {"tags": ["auth"], "summary": "Exchange credentials for a bearer token",
                "responses": {"200": {"description": "OK"}, "401": {"description": "Unauthorized"}}}
        },
        "/auth/me": {
            "get": {"tags": ["auth"], "summary": "Profile of the token's account", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}}}
        },
        "/cart": {
            "get": {"tags": ["cart"], "summary": "Current cart with pricing", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}}},
            "post": {"tags": ["cart"], "summary": "Add product to cart", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}}},
            "delete": {"tags": ["cart"], "summary": "Clear cart", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}}}
        },
        "/orders": {
            "post": {"tags": ["orders"], "summary": "Checkout", "security": [{"BearerAuth": []}],
                "responses": {"201": {"description": "Created"}, "400": {"description": "Bad Request"}, "403": {"description": "Forbidden"}}}
        },
        "/orders/mine": {
            "get": {"tags": ["orders"], "summary": "Buyer order history", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}}}
        },
        "/orders/{id}": {
            "get": {"tags": ["orders"], "summary": "Get order", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}}
        },
        "/orders/{id}/cancel": {
            "post": {"tags": ["orders"], "summary": "Buyer cancellation", "security": [{"BearerAuth": []}],
                "responses": {"200": {"description": "OK"}, "403": {"description": "Forbidden"}, "409": {"description": "Conflict"}}}
        },
        "/admin/orders": {
            "get": {"tags": ["admin"], "summary": "Order desk", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}}}
        },
        "/admin/orders/stats": {
            "get": {"tags": ["admin"], "summary": "Order statistics", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}}}
        },
        "/admin/orders/{id}/status": {
            "put": {"tags": ["admin"], "summary": "Set order status", "security": [{"BearerAuth": []}],
                "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}, "409": {"description": "Conflict"}}}
        },
        "/testimonials": {
            "get": {"tags": ["testimonials"], "summary": "Approved testimonials", "responses": {"200": {"description": "OK"}}},
            "post": {"tags": ["testimonials"], "summary": "Submit testimonial", "responses": {"201": {"description": "Created"}}}
        },
        "/admin/testimonials": {
            "get": {"tags": ["testimonials"], "summary": "Moderation queue", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}}}
        },
        "/admin/testimonials/{id}/approve": {
            "post": {"tags": ["testimonials"], "summary": "Approve testimonial", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}}
        },
        "/admin/testimonials/{id}/reject": {
            "post": {"tags": ["testimonials"], "summary": "Reject testimonial", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}}
        },
        "/admin/testimonials/{id}/restore": {
            "post": {"tags": ["testimonials"], "summary": "Return testimonial to pending", "security": [{"BearerAuth": []}], "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}}
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "MultiMarket API",
	Description:      "Storefront catalog, cart, order and testimonial services.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
