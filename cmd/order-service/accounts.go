package main

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/MikeMC777/multimarket/internal/httpx"
	"github.com/MikeMC777/multimarket/internal/userrpc"
)

// accounts is the part of the user-service client behind /auth.
type accounts interface {
	CreateUser(ctx context.Context, in userrpc.NewUser, opts ...grpc.CallOption) (userrpc.User, error)
	AuthenticateUser(ctx context.Context, in userrpc.Credentials, opts ...grpc.CallOption) (userrpc.AuthResult, error)
	GetUser(ctx context.Context, id string, opts ...grpc.CallOption) (userrpc.User, error)
}

type registerRequest struct {
	Email    string `json:"email"    binding:"required" example:"aziz@example.com"`
	Password string `json:"password" binding:"required" example:"secret123"`
	FullName string `json:"fullName" binding:"required" example:"Aziz Karimov"`
	Phone    string `json:"phone"                       example:"+998901234567"`
}

type loginRequest struct {
	Email    string `json:"email"    binding:"required"`
	Password string `json:"password" binding:"required"`
}

type loginResponse struct {
	Token string       `json:"token"`
	User  userrpc.User `json:"user"`
}

// rpcStatus maps a user-service error to an HTTP code.
func rpcStatus(err error) int {
	switch status.Code(err) {
	case codes.InvalidArgument:
		return http.StatusBadRequest
	case codes.AlreadyExists:
		return http.StatusConflict
	case codes.NotFound:
		return http.StatusNotFound
	case codes.Unavailable, codes.DeadlineExceeded:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func respondRPCError(c *gin.Context, err error) {
	code := rpcStatus(err)
	if code == http.StatusInternalServerError || code == http.StatusBadGateway {
		_ = c.Error(err)
		c.JSON(code, gin.H{"error": http.StatusText(code)})
		return
	}
	c.JSON(code, gin.H{"error": status.Convert(err).Message()})
}

// registerHandler godoc
// @Summary   Register a buyer account
// @Tags      auth
// @Accept    json
// @Produce   json
// @Param     body  body      registerRequest  true  "account"
// @Success   201   {object}  userrpc.User
// @Failure   400   {object}  map[string]string
// @Failure   409   {object}  map[string]string
// @Router    /auth/register [post]
func registerHandler(users accounts) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req registerRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "email, password and fullName are required"})
			return
		}
		u, err := users.CreateUser(c.Request.Context(), userrpc.NewUser{
			Email:    strings.TrimSpace(req.Email),
			Password: req.Password,
			FullName: req.FullName,
			Phone:    req.Phone,
		})
		if err != nil {
			respondRPCError(c, err)
			return
		}
		c.JSON(http.StatusCreated, u)
	}
}

// loginHandler godoc
// @Summary   Exchange credentials for a bearer token
// @Tags      auth
// @Accept    json
// @Produce   json
// @Param     body  body      loginRequest  true  "credentials"
// @Success   200   {object}  loginResponse
// @Failure   401   {object}  map[string]string
// @Router    /auth/login [post]
func loginHandler(users accounts) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req loginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "email and password are required"})
			return
		}
		res, err := users.AuthenticateUser(c.Request.Context(), userrpc.Credentials{
			Email:    strings.ToLower(strings.TrimSpace(req.Email)),
			Password: req.Password,
		})
		if err != nil {
			respondRPCError(c, err)
			return
		}
		if !res.OK {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid email or password"})
			return
		}
		c.JSON(http.StatusOK, loginResponse{Token: res.Token, User: res.User})
	}
}

// meHandler godoc
// @Summary   Profile of the token's account
// @Tags      auth
// @Produce   json
// @Security  BearerAuth
// @Success   200  {object}  userrpc.User
// @Failure   401  {object}  map[string]string
// @Router    /auth/me [get]
func meHandler(users accounts) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, _ := httpx.Principal(c)
		u, err := users.GetUser(c.Request.Context(), p.UID)
		if err != nil {
			respondRPCError(c, err)
			return
		}
		c.JSON(http.StatusOK, u)
	}
}

func authRoutes(r gin.IRouter, users accounts, tokens httpx.TokenParser) {
	g := r.Group("/auth")
	g.POST("/register", registerHandler(users))
	g.POST("/login", loginHandler(users))
	g.GET("/me", httpx.Auth(tokens), meHandler(users))
}
