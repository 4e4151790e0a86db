package controllers

import (
	"net/http"
	"strconv"
	"time"

	restfulspec "github.com/emicklei/go-restful-openapi/v2"
	restful "github.com/emicklei/go-restful/v3"

	"access-center/apperrors"
	"access-center/auth"
	"access-center/models"
	"access-center/services"
)

// UserController exposes signup, the credential lifecycle, and user
// administration over HTTP.
type UserController struct {
	userService services.UserService
	resolver    *auth.IdentityResolver
	filters     *auth.TokenFilters
}

func NewUserController(userService services.UserService, resolver *auth.IdentityResolver, filters *auth.TokenFilters) *UserController {
	return &UserController{userService: userService, resolver: resolver, filters: filters}
}

type UserResponse struct {
	ID         string    `json:"id"`
	Email      string    `json:"email"`
	FirstName  string    `json:"first_name"`
	LastName   string    `json:"last_name"`
	IsVerified bool      `json:"is_verified"`
	CreatedAt  time.Time `json:"created_at"`
	ModifiedAt time.Time `json:"modified_at"`
}

type PaginatedUsersResponse struct {
	Users    []UserResponse `json:"users"`
	Total    int64          `json:"total"`
	Page     int            `json:"page"`
	PageSize int            `json:"page_size"`
}

type LoginRequest struct {
	Email    string `json:"email" description:"Email for login"`
	Password string `json:"password" description:"Password for login"`
}

type LoginResponse struct {
	Message      string `json:"message"`
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

type SignupResponse struct {
	Email   string `json:"email"`
	Success bool   `json:"success"`
}

type MeResponse struct {
	ID          string        `json:"id"`
	Email       string        `json:"email"`
	Roles       []models.Role `json:"roles"`
	Permissions []string      `json:"permissions"`
}

func mapUserToResponse(user *models.User) UserResponse {
	return UserResponse{
		ID:         user.ID,
		Email:      user.Email,
		FirstName:  user.FirstName,
		LastName:   user.LastName,
		IsVerified: user.IsVerified,
		CreatedAt:  user.CreatedAt,
		ModifiedAt: user.ModifiedAt,
	}
}

// RegisterRoutes sets up the user-related routes.
func (ctl *UserController) RegisterRoutes(ws *restful.WebService) {
	ws.Path("/users").Consumes(restful.MIME_JSON).Produces(restful.MIME_JSON)

	ws.Route(ws.POST("/signup").To(ctl.signupHandler).
		Doc("Register a new user").
		Metadata(restfulspec.KeyOpenAPITags, []string{"users"}).
		Reads(services.SignupInput{}).
		Returns(http.StatusCreated, "User created", SignupResponse{}).
		Returns(http.StatusConflict, "Email already exists", apperrors.Error{}))

	ws.Route(ws.POST("/login").To(ctl.loginHandler).
		Doc("Exchange email and password for an access/refresh token pair").
		Metadata(restfulspec.KeyOpenAPITags, []string{"users"}).
		Reads(LoginRequest{}).
		Returns(http.StatusCreated, "Login successful", LoginResponse{}).
		Returns(http.StatusUnauthorized, "Invalid credentials", apperrors.Error{}))

	ws.Route(ws.GET("/refresh").Filter(ctl.filters.RefreshToken()).To(ctl.refreshHandler).
		Doc("Exchange a refresh token for a new token pair; the presented token is revoked").
		Metadata(restfulspec.KeyOpenAPITags, []string{"users"}).
		Returns(http.StatusOK, "New token pair issued", LoginResponse{}).
		Returns(http.StatusForbidden, "Invalid refresh token", apperrors.Error{}))

	ws.Route(ws.POST("/logout").Filter(ctl.filters.AccessToken()).To(ctl.logoutHandler).
		Doc("Revoke the presented access token until its natural expiry").
		Metadata(restfulspec.KeyOpenAPITags, []string{"users"}).
		Returns(http.StatusOK, "Token revoked", nil).
		Returns(http.StatusInternalServerError, "Revocation failed", apperrors.Error{}))

	ws.Route(ws.GET("/me").Filter(ctl.filters.AccessToken()).To(ctl.meHandler).
		Doc("Current identity with live roles and effective permissions").
		Metadata(restfulspec.KeyOpenAPITags, []string{"users"}).
		Returns(http.StatusOK, "Resolved identity", MeResponse{}))

	ws.Route(ws.GET("").Filter(ctl.filters.AccessToken()).To(ctl.listUsersHandler).
		Doc("List users with pagination").
		Param(ws.QueryParameter("page", "Page number (default 1)").DataType("integer").DefaultValue("1")).
		Param(ws.QueryParameter("page_size", "Users per page (default 10)").DataType("integer").DefaultValue("10")).
		Metadata(restfulspec.KeyOpenAPITags, []string{"users"}).
		Writes(PaginatedUsersResponse{}).
		Returns(http.StatusOK, "Users listed", PaginatedUsersResponse{}).
		Returns(http.StatusForbidden, "Insufficient permissions", apperrors.Error{}))

	ws.Route(ws.GET("/{user-id}").Filter(ctl.filters.AccessToken()).To(ctl.getUserHandler).
		Doc("Get user by id or email").
		Param(ws.PathParameter("user-id", "User id or email").DataType("string")).
		Metadata(restfulspec.KeyOpenAPITags, []string{"users"}).
		Writes(UserResponse{}).
		Returns(http.StatusOK, "User found", UserResponse{}).
		Returns(http.StatusForbidden, "Insufficient permissions", apperrors.Error{}).
		Returns(http.StatusNotFound, "User not found", apperrors.Error{}))

	ws.Route(ws.PUT("/{user-id}").Filter(ctl.filters.AccessToken()).To(ctl.updateUserHandler).
		Doc("Update user by id or email").
		Param(ws.PathParameter("user-id", "User id or email").DataType("string")).
		Metadata(restfulspec.KeyOpenAPITags, []string{"users"}).
		Reads(services.UpdateUserInput{}).
		Returns(http.StatusOK, "User updated", UserResponse{}).
		Returns(http.StatusForbidden, "Insufficient permissions", apperrors.Error{}).
		Returns(http.StatusNotFound, "User not found", apperrors.Error{}))

	ws.Route(ws.DELETE("/{user-id}").Filter(ctl.filters.AccessToken()).To(ctl.deleteUserHandler).
		Doc("Delete user by id or email; cascades the user's role assignments").
		Param(ws.PathParameter("user-id", "User id or email").DataType("string")).
		Metadata(restfulspec.KeyOpenAPITags, []string{"users"}).
		Returns(http.StatusNoContent, "User deleted", nil).
		Returns(http.StatusForbidden, "Insufficient permissions", apperrors.Error{}).
		Returns(http.StatusNotFound, "User not found", apperrors.Error{}))
}

func (ctl *UserController) signupHandler(request *restful.Request, response *restful.Response) {
	input := new(services.SignupInput)
	if err := request.ReadEntity(input); err != nil {
		writeBadRequest(response, "Invalid request body: "+err.Error())
		return
	}
	if input.Email == "" || input.Password == "" {
		writeBadRequest(response, "Email and password are required")
		return
	}

	user, err := ctl.userService.Signup(request.Request.Context(), input)
	if err != nil {
		auth.WriteError(response, err)
		return
	}
	_ = response.WriteHeaderAndJson(http.StatusCreated, SignupResponse{Email: user.Email, Success: true}, restful.MIME_JSON)
}

func (ctl *UserController) loginHandler(request *restful.Request, response *restful.Response) {
	creds := new(LoginRequest)
	if err := request.ReadEntity(creds); err != nil {
		writeBadRequest(response, "Invalid request body: "+err.Error())
		return
	}
	if creds.Email == "" || creds.Password == "" {
		writeBadRequest(response, "Email and password are required")
		return
	}

	pair, err := ctl.userService.Login(request.Request.Context(), creds.Email, creds.Password)
	if err != nil {
		auth.WriteError(response, err)
		return
	}
	_ = response.WriteHeaderAndJson(http.StatusCreated, LoginResponse{
		Message:      "Login successful",
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	}, restful.MIME_JSON)
}

func (ctl *UserController) refreshHandler(request *restful.Request, response *restful.Response) {
	claims, ok := auth.ClaimsFromRequest(request)
	if !ok {
		auth.WriteError(response, apperrors.InvalidRefreshToken())
		return
	}

	pair, err := ctl.userService.Refresh(request.Request.Context(), claims)
	if err != nil {
		auth.WriteError(response, err)
		return
	}
	_ = response.WriteHeaderAndJson(http.StatusOK, LoginResponse{
		Message:      "Token pair refreshed",
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	}, restful.MIME_JSON)
}

func (ctl *UserController) logoutHandler(request *restful.Request, response *restful.Response) {
	claims, ok := auth.ClaimsFromRequest(request)
	if !ok {
		auth.WriteError(response, apperrors.InvalidAccessToken())
		return
	}

	if err := ctl.userService.Logout(request.Request.Context(), claims); err != nil {
		auth.WriteError(response, err)
		return
	}
	_ = response.WriteHeaderAndJson(http.StatusOK, map[string]string{"message": "Logged out successfully"}, restful.MIME_JSON)
}

func (ctl *UserController) meHandler(request *restful.Request, response *restful.Response) {
	identity, ok := resolveIdentity(ctl.resolver, request, response)
	if !ok {
		return
	}

	permissions := make([]string, 0, len(identity.Permissions))
	for p := range identity.Permissions {
		permissions = append(permissions, p.String())
	}
	_ = response.WriteHeaderAndJson(http.StatusOK, MeResponse{
		ID:          identity.UserID,
		Email:       identity.Email,
		Roles:       identity.Roles,
		Permissions: permissions,
	}, restful.MIME_JSON)
}

func (ctl *UserController) listUsersHandler(request *restful.Request, response *restful.Response) {
	identity, ok := resolveIdentity(ctl.resolver, request, response)
	if !ok {
		return
	}

	page, err := strconv.Atoi(request.QueryParameter("page"))
	if err != nil || page < 1 {
		page = 1
	}
	pageSize, err := strconv.Atoi(request.QueryParameter("page_size"))
	if err != nil || pageSize < 1 {
		pageSize = 10
	}

	users, total, svcErr := ctl.userService.ListUsers(request.Request.Context(), identity, page, pageSize)
	if svcErr != nil {
		auth.WriteError(response, svcErr)
		return
	}

	responses := make([]UserResponse, len(users))
	for i := range users {
		responses[i] = mapUserToResponse(&users[i])
	}
	_ = response.WriteHeaderAndJson(http.StatusOK, PaginatedUsersResponse{
		Users:    responses,
		Total:    total,
		Page:     page,
		PageSize: pageSize,
	}, restful.MIME_JSON)
}

func (ctl *UserController) getUserHandler(request *restful.Request, response *restful.Response) {
	identity, ok := resolveIdentity(ctl.resolver, request, response)
	if !ok {
		return
	}

	user, err := ctl.userService.GetUser(request.Request.Context(), identity, request.PathParameter("user-id"))
	if err != nil {
		auth.WriteError(response, err)
		return
	}
	_ = response.WriteHeaderAndJson(http.StatusOK, mapUserToResponse(user), restful.MIME_JSON)
}

func (ctl *UserController) updateUserHandler(request *restful.Request, response *restful.Response) {
	identity, ok := resolveIdentity(ctl.resolver, request, response)
	if !ok {
		return
	}

	input := new(services.UpdateUserInput)
	if err := request.ReadEntity(input); err != nil {
		writeBadRequest(response, "Invalid request body: "+err.Error())
		return
	}

	user, err := ctl.userService.UpdateUser(request.Request.Context(), identity, request.PathParameter("user-id"), input)
	if err != nil {
		auth.WriteError(response, err)
		return
	}
	_ = response.WriteHeaderAndJson(http.StatusOK, mapUserToResponse(user), restful.MIME_JSON)
}

func (ctl *UserController) deleteUserHandler(request *restful.Request, response *restful.Response) {
	identity, ok := resolveIdentity(ctl.resolver, request, response)
	if !ok {
		return
	}

	if err := ctl.userService.DeleteUser(request.Request.Context(), identity, request.PathParameter("user-id")); err != nil {
		auth.WriteError(response, err)
		return
	}
	response.WriteHeader(http.StatusNoContent)
}
