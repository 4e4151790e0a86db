package controllers

import (
	"net/http"

	restfulspec "github.com/emicklei/go-restful-openapi/v2"
	restful "github.com/emicklei/go-restful/v3"

	"access-center/apperrors"
	"access-center/auth"
	"access-center/models"
	"access-center/services"
)

// AssignmentController exposes both junction administrations: user↔role and
// role↔permission.
type AssignmentController struct {
	assignmentService services.AssignmentService
	resolver          *auth.IdentityResolver
	filters           *auth.TokenFilters
}

func NewAssignmentController(assignmentService services.AssignmentService, resolver *auth.IdentityResolver, filters *auth.TokenFilters) *AssignmentController {
	return &AssignmentController{assignmentService: assignmentService, resolver: resolver, filters: filters}
}

type RoleAssignmentRequest struct {
	UserID string `json:"user_id"`
	RoleID uint   `json:"role_id"`
}

type PermissionAssignmentRequest struct {
	RoleID       uint `json:"role_id"`
	PermissionID uint `json:"permission_id"`
}

// RegisterRoleAssignmentRoutes sets up the user↔role junction routes.
func (ctl *AssignmentController) RegisterRoleAssignmentRoutes(ws *restful.WebService) {
	ws.Path("/role-assignments").Consumes(restful.MIME_JSON).Produces(restful.MIME_JSON)

	ws.Route(ws.GET("").Filter(ctl.filters.AccessToken()).To(ctl.listRoleAssignmentsHandler).
		Doc("List role assignments; filtering by your own user id needs the self permission, anything else needs all").
		Param(ws.QueryParameter("user_id", "Filter by user id").DataType("string")).
		Param(ws.QueryParameter("role_id", "Filter by role id").DataType("integer")).
		Metadata(restfulspec.KeyOpenAPITags, []string{"role-assignments"}).
		Returns(http.StatusOK, "Assignments listed", []models.UserRole{}).
		Returns(http.StatusForbidden, "Insufficient permissions", apperrors.Error{}))

	ws.Route(ws.POST("").Filter(ctl.filters.AccessToken()).To(ctl.createRoleAssignmentHandler).
		Doc("Assign a role to a user").
		Metadata(restfulspec.KeyOpenAPITags, []string{"role-assignments"}).
		Reads(RoleAssignmentRequest{}).
		Returns(http.StatusCreated, "Role assigned", models.UserRole{}).
		Returns(http.StatusNotFound, "User or role not found", apperrors.Error{}).
		Returns(http.StatusConflict, "Assignment already exists", apperrors.Error{}))

	ws.Route(ws.DELETE("").Filter(ctl.filters.AccessToken()).To(ctl.deleteRoleAssignmentHandler).
		Doc("Remove a role assignment").
		Metadata(restfulspec.KeyOpenAPITags, []string{"role-assignments"}).
		Reads(RoleAssignmentRequest{}).
		Returns(http.StatusNoContent, "Assignment removed", nil).
		Returns(http.StatusNotFound, "Assignment not found", apperrors.Error{}))
}

// RegisterPermissionAssignmentRoutes sets up the role↔permission junction
// routes.
func (ctl *AssignmentController) RegisterPermissionAssignmentRoutes(ws *restful.WebService) {
	ws.Path("/permission-assignments").Consumes(restful.MIME_JSON).Produces(restful.MIME_JSON)

	ws.Route(ws.GET("").Filter(ctl.filters.AccessToken()).To(ctl.listPermissionAssignmentsHandler).
		Doc("List permission assignments").
		Param(ws.QueryParameter("role_id", "Filter by role id").DataType("integer")).
		Param(ws.QueryParameter("permission_id", "Filter by permission id").DataType("integer")).
		Metadata(restfulspec.KeyOpenAPITags, []string{"permission-assignments"}).
		Returns(http.StatusOK, "Assignments listed", []models.RolePermission{}).
		Returns(http.StatusForbidden, "Insufficient permissions", apperrors.Error{}))

	ws.Route(ws.POST("").Filter(ctl.filters.AccessToken()).To(ctl.createPermissionAssignmentHandler).
		Doc("Assign a permission to a role").
		Metadata(restfulspec.KeyOpenAPITags, []string{"permission-assignments"}).
		Reads(PermissionAssignmentRequest{}).
		Returns(http.StatusCreated, "Permission assigned", models.RolePermission{}).
		Returns(http.StatusNotFound, "Role or permission not found", apperrors.Error{}).
		Returns(http.StatusConflict, "Assignment already exists", apperrors.Error{}))

	ws.Route(ws.DELETE("").Filter(ctl.filters.AccessToken()).To(ctl.deletePermissionAssignmentHandler).
		Doc("Remove a permission assignment").
		Metadata(restfulspec.KeyOpenAPITags, []string{"permission-assignments"}).
		Reads(PermissionAssignmentRequest{}).
		Returns(http.StatusNoContent, "Assignment removed", nil).
		Returns(http.StatusNotFound, "Assignment not found", apperrors.Error{}))
}

func (ctl *AssignmentController) listRoleAssignmentsHandler(request *restful.Request, response *restful.Response) {
	identity, ok := resolveIdentity(ctl.resolver, request, response)
	if !ok {
		return
	}

	userID := request.QueryParameter("user_id")
	var roleID uint
	if raw := request.QueryParameter("role_id"); raw != "" {
		id, ok := uintParam(raw)
		if !ok {
			writeBadRequest(response, "Invalid role id")
			return
		}
		roleID = id
	}

	assignments, err := ctl.assignmentService.ListRoleAssignments(request.Request.Context(), identity, userID, roleID)
	if err != nil {
		auth.WriteError(response, err)
		return
	}
	_ = response.WriteHeaderAndJson(http.StatusOK, assignments, restful.MIME_JSON)
}

func (ctl *AssignmentController) createRoleAssignmentHandler(request *restful.Request, response *restful.Response) {
	identity, ok := resolveIdentity(ctl.resolver, request, response)
	if !ok {
		return
	}

	input := new(RoleAssignmentRequest)
	if err := request.ReadEntity(input); err != nil {
		writeBadRequest(response, "Invalid request body: "+err.Error())
		return
	}
	if input.UserID == "" || input.RoleID == 0 {
		writeBadRequest(response, "user_id and role_id are required")
		return
	}

	assignment, err := ctl.assignmentService.CreateRoleAssignment(request.Request.Context(), identity, input.UserID, input.RoleID)
	if err != nil {
		auth.WriteError(response, err)
		return
	}
	_ = response.WriteHeaderAndJson(http.StatusCreated, assignment, restful.MIME_JSON)
}

func (ctl *AssignmentController) deleteRoleAssignmentHandler(request *restful.Request, response *restful.Response) {
	identity, ok := resolveIdentity(ctl.resolver, request, response)
	if !ok {
		return
	}

	input := new(RoleAssignmentRequest)
	if err := request.ReadEntity(input); err != nil {
		writeBadRequest(response, "Invalid request body: "+err.Error())
		return
	}

	if err := ctl.assignmentService.DeleteRoleAssignment(request.Request.Context(), identity, input.UserID, input.RoleID); err != nil {
		auth.WriteError(response, err)
		return
	}
	response.WriteHeader(http.StatusNoContent)
}

func (ctl *AssignmentController) listPermissionAssignmentsHandler(request *restful.Request, response *restful.Response) {
	identity, ok := resolveIdentity(ctl.resolver, request, response)
	if !ok {
		return
	}

	var roleID, permissionID uint
	if raw := request.QueryParameter("role_id"); raw != "" {
		id, ok := uintParam(raw)
		if !ok {
			writeBadRequest(response, "Invalid role id")
			return
		}
		roleID = id
	}
	if raw := request.QueryParameter("permission_id"); raw != "" {
		id, ok := uintParam(raw)
		if !ok {
			writeBadRequest(response, "Invalid permission id")
			return
		}
		permissionID = id
	}

	assignments, err := ctl.assignmentService.ListPermissionAssignments(request.Request.Context(), identity, roleID, permissionID)
	if err != nil {
		auth.WriteError(response, err)
		return
	}
	_ = response.WriteHeaderAndJson(http.StatusOK, assignments, restful.MIME_JSON)
}

func (ctl *AssignmentController) createPermissionAssignmentHandler(request *restful.Request, response *restful.Response) {
	identity, ok := resolveIdentity(ctl.resolver, request, response)
	if !ok {
		return
	}

	input := new(PermissionAssignmentRequest)
	if err := request.ReadEntity(input); err != nil {
		writeBadRequest(response, "Invalid request body: "+err.Error())
		return
	}
	if input.RoleID == 0 || input.PermissionID == 0 {
		writeBadRequest(response, "role_id and permission_id are required")
		return
	}

	assignment, err := ctl.assignmentService.CreatePermissionAssignment(request.Request.Context(), identity, input.RoleID, input.PermissionID)
	if err != nil {
		auth.WriteError(response, err)
		return
	}
	_ = response.WriteHeaderAndJson(http.StatusCreated, assignment, restful.MIME_JSON)
}

func (ctl *AssignmentController) deletePermissionAssignmentHandler(request *restful.Request, response *restful.Response) {
	identity, ok := resolveIdentity(ctl.resolver, request, response)
	if !ok {
		return
	}

	input := new(PermissionAssignmentRequest)
	if err := request.ReadEntity(input); err != nil {
		writeBadRequest(response, "Invalid request body: "+err.Error())
		return
	}

	if err := ctl.assignmentService.DeletePermissionAssignment(request.Request.Context(), identity, input.RoleID, input.PermissionID); err != nil {
		auth.WriteError(response, err)
		return
	}
	response.WriteHeader(http.StatusNoContent)
}
