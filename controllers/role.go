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

// RoleController exposes role administration over HTTP.
type RoleController struct {
	roleService services.RoleService
	resolver    *auth.IdentityResolver
	filters     *auth.TokenFilters
}

func NewRoleController(roleService services.RoleService, resolver *auth.IdentityResolver, filters *auth.TokenFilters) *RoleController {
	return &RoleController{roleService: roleService, resolver: resolver, filters: filters}
}

func (ctl *RoleController) RegisterRoutes(ws *restful.WebService) {
	ws.Path("/roles").Consumes(restful.MIME_JSON).Produces(restful.MIME_JSON)

	ws.Route(ws.GET("").Filter(ctl.filters.AccessToken()).To(ctl.listRolesHandler).
		Doc("List all roles").
		Metadata(restfulspec.KeyOpenAPITags, []string{"roles"}).
		Returns(http.StatusOK, "Roles listed", []models.Role{}).
		Returns(http.StatusForbidden, "Insufficient permissions", apperrors.Error{}))

	ws.Route(ws.POST("").Filter(ctl.filters.AccessToken()).To(ctl.createRoleHandler).
		Doc("Create a new role").
		Metadata(restfulspec.KeyOpenAPITags, []string{"roles"}).
		Reads(services.RoleInput{}).
		Returns(http.StatusCreated, "Role created", models.Role{}).
		Returns(http.StatusConflict, "Role name already exists", apperrors.Error{}))

	ws.Route(ws.GET("/{role-id}").Filter(ctl.filters.AccessToken()).To(ctl.getRoleHandler).
		Doc("Get role by id").
		Param(ws.PathParameter("role-id", "Identifier of the role").DataType("integer")).
		Metadata(restfulspec.KeyOpenAPITags, []string{"roles"}).
		Returns(http.StatusOK, "Role found", models.Role{}).
		Returns(http.StatusNotFound, "Role not found", apperrors.Error{}))

	ws.Route(ws.PUT("/{role-id}").Filter(ctl.filters.AccessToken()).To(ctl.updateRoleHandler).
		Doc("Update role by id").
		Param(ws.PathParameter("role-id", "Identifier of the role").DataType("integer")).
		Metadata(restfulspec.KeyOpenAPITags, []string{"roles"}).
		Reads(services.RoleInput{}).
		Returns(http.StatusOK, "Role updated", models.Role{}).
		Returns(http.StatusNotFound, "Role not found", apperrors.Error{}))

	ws.Route(ws.DELETE("/{role-id}").Filter(ctl.filters.AccessToken()).To(ctl.deleteRoleHandler).
		Doc("Delete role by id; cascades its user and permission assignments").
		Param(ws.PathParameter("role-id", "Identifier of the role").DataType("integer")).
		Metadata(restfulspec.KeyOpenAPITags, []string{"roles"}).
		Returns(http.StatusNoContent, "Role deleted", nil).
		Returns(http.StatusNotFound, "Role not found", apperrors.Error{}))
}

func (ctl *RoleController) listRolesHandler(request *restful.Request, response *restful.Response) {
	identity, ok := resolveIdentity(ctl.resolver, request, response)
	if !ok {
		return
	}

	roles, err := ctl.roleService.ListRoles(request.Request.Context(), identity)
	if err != nil {
		auth.WriteError(response, err)
		return
	}
	_ = response.WriteHeaderAndJson(http.StatusOK, roles, restful.MIME_JSON)
}

func (ctl *RoleController) createRoleHandler(request *restful.Request, response *restful.Response) {
	identity, ok := resolveIdentity(ctl.resolver, request, response)
	if !ok {
		return
	}

	input := new(services.RoleInput)
	if err := request.ReadEntity(input); err != nil {
		writeBadRequest(response, "Invalid request body: "+err.Error())
		return
	}
	if input.Name == "" {
		writeBadRequest(response, "Role name is required")
		return
	}

	role, err := ctl.roleService.CreateRole(request.Request.Context(), identity, input)
	if err != nil {
		auth.WriteError(response, err)
		return
	}
	_ = response.WriteHeaderAndJson(http.StatusCreated, role, restful.MIME_JSON)
}

func (ctl *RoleController) getRoleHandler(request *restful.Request, response *restful.Response) {
	identity, ok := resolveIdentity(ctl.resolver, request, response)
	if !ok {
		return
	}

	id, ok := uintParam(request.PathParameter("role-id"))
	if !ok {
		writeBadRequest(response, "Invalid role id")
		return
	}

	role, err := ctl.roleService.GetRole(request.Request.Context(), identity, id)
	if err != nil {
		auth.WriteError(response, err)
		return
	}
	_ = response.WriteHeaderAndJson(http.StatusOK, role, restful.MIME_JSON)
}

func (ctl *RoleController) updateRoleHandler(request *restful.Request, response *restful.Response) {
	identity, ok := resolveIdentity(ctl.resolver, request, response)
	if !ok {
		return
	}

	id, ok := uintParam(request.PathParameter("role-id"))
	if !ok {
		writeBadRequest(response, "Invalid role id")
		return
	}

	input := new(services.RoleInput)
	if err := request.ReadEntity(input); err != nil {
		writeBadRequest(response, "Invalid request body: "+err.Error())
		return
	}

	role, err := ctl.roleService.UpdateRole(request.Request.Context(), identity, id, input)
	if err != nil {
		auth.WriteError(response, err)
		return
	}
	_ = response.WriteHeaderAndJson(http.StatusOK, role, restful.MIME_JSON)
}

func (ctl *RoleController) deleteRoleHandler(request *restful.Request, response *restful.Response) {
	identity, ok := resolveIdentity(ctl.resolver, request, response)
	if !ok {
		return
	}

	id, ok := uintParam(request.PathParameter("role-id"))
	if !ok {
		writeBadRequest(response, "Invalid role id")
		return
	}

	if err := ctl.roleService.DeleteRole(request.Request.Context(), identity, id); err != nil {
		auth.WriteError(response, err)
		return
	}
	response.WriteHeader(http.StatusNoContent)
}
