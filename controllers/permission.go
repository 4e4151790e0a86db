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

// PermissionController exposes permission administration over HTTP.
type PermissionController struct {
	permissionService services.PermissionService
	resolver          *auth.IdentityResolver
	filters           *auth.TokenFilters
}

func NewPermissionController(permissionService services.PermissionService, resolver *auth.IdentityResolver, filters *auth.TokenFilters) *PermissionController {
	return &PermissionController{permissionService: permissionService, resolver: resolver, filters: filters}
}

func (ctl *PermissionController) RegisterRoutes(ws *restful.WebService) {
	ws.Path("/permissions").Consumes(restful.MIME_JSON).Produces(restful.MIME_JSON)

	ws.Route(ws.GET("").Filter(ctl.filters.AccessToken()).To(ctl.listPermissionsHandler).
		Doc("List all permissions").
		Metadata(restfulspec.KeyOpenAPITags, []string{"permissions"}).
		Returns(http.StatusOK, "Permissions listed", []models.Permission{}).
		Returns(http.StatusForbidden, "Insufficient permissions", apperrors.Error{}))

	ws.Route(ws.POST("").Filter(ctl.filters.AccessToken()).To(ctl.createPermissionHandler).
		Doc("Create a new permission; the (action, resource, scope) triple must be unique").
		Metadata(restfulspec.KeyOpenAPITags, []string{"permissions"}).
		Reads(services.PermissionInput{}).
		Returns(http.StatusCreated, "Permission created", models.Permission{}).
		Returns(http.StatusConflict, "Duplicate permission triple", apperrors.Error{}))

	ws.Route(ws.GET("/{permission-id}").Filter(ctl.filters.AccessToken()).To(ctl.getPermissionHandler).
		Doc("Get permission by id").
		Param(ws.PathParameter("permission-id", "Identifier of the permission").DataType("integer")).
		Metadata(restfulspec.KeyOpenAPITags, []string{"permissions"}).
		Returns(http.StatusOK, "Permission found", models.Permission{}).
		Returns(http.StatusNotFound, "Permission not found", apperrors.Error{}))

	ws.Route(ws.PUT("/{permission-id}").Filter(ctl.filters.AccessToken()).To(ctl.updatePermissionHandler).
		Doc("Update permission by id").
		Param(ws.PathParameter("permission-id", "Identifier of the permission").DataType("integer")).
		Metadata(restfulspec.KeyOpenAPITags, []string{"permissions"}).
		Reads(services.PermissionInput{}).
		Returns(http.StatusOK, "Permission updated", models.Permission{}).
		Returns(http.StatusNotFound, "Permission not found", apperrors.Error{}))

	ws.Route(ws.DELETE("/{permission-id}").Filter(ctl.filters.AccessToken()).To(ctl.deletePermissionHandler).
		Doc("Delete permission by id; cascades its role assignments").
		Param(ws.PathParameter("permission-id", "Identifier of the permission").DataType("integer")).
		Metadata(restfulspec.KeyOpenAPITags, []string{"permissions"}).
		Returns(http.StatusNoContent, "Permission deleted", nil).
		Returns(http.StatusNotFound, "Permission not found", apperrors.Error{}))
}

func (ctl *PermissionController) listPermissionsHandler(request *restful.Request, response *restful.Response) {
	identity, ok := resolveIdentity(ctl.resolver, request, response)
	if !ok {
		return
	}

	permissions, err := ctl.permissionService.ListPermissions(request.Request.Context(), identity)
	if err != nil {
		auth.WriteError(response, err)
		return
	}
	_ = response.WriteHeaderAndJson(http.StatusOK, permissions, restful.MIME_JSON)
}

func (ctl *PermissionController) createPermissionHandler(request *restful.Request, response *restful.Response) {
	identity, ok := resolveIdentity(ctl.resolver, request, response)
	if !ok {
		return
	}

	input := new(services.PermissionInput)
	if err := request.ReadEntity(input); err != nil {
		writeBadRequest(response, "Invalid request body: "+err.Error())
		return
	}
	if input.Action == "" || input.Resource == "" || input.Scope == "" {
		writeBadRequest(response, "Action, resource and scope are required")
		return
	}

	permission, err := ctl.permissionService.CreatePermission(request.Request.Context(), identity, input)
	if err != nil {
		auth.WriteError(response, err)
		return
	}
	_ = response.WriteHeaderAndJson(http.StatusCreated, permission, restful.MIME_JSON)
}

func (ctl *PermissionController) getPermissionHandler(request *restful.Request, response *restful.Response) {
	identity, ok := resolveIdentity(ctl.resolver, request, response)
	if !ok {
		return
	}

	id, ok := uintParam(request.PathParameter("permission-id"))
	if !ok {
		writeBadRequest(response, "Invalid permission id")
		return
	}

	permission, err := ctl.permissionService.GetPermission(request.Request.Context(), identity, id)
	if err != nil {
		auth.WriteError(response, err)
		return
	}
	_ = response.WriteHeaderAndJson(http.StatusOK, permission, restful.MIME_JSON)
}

func (ctl *PermissionController) updatePermissionHandler(request *restful.Request, response *restful.Response) {
	identity, ok := resolveIdentity(ctl.resolver, request, response)
	if !ok {
		return
	}

	id, ok := uintParam(request.PathParameter("permission-id"))
	if !ok {
		writeBadRequest(response, "Invalid permission id")
		return
	}

	input := new(services.PermissionInput)
	if err := request.ReadEntity(input); err != nil {
		writeBadRequest(response, "Invalid request body: "+err.Error())
		return
	}

	permission, err := ctl.permissionService.UpdatePermission(request.Request.Context(), identity, id, input)
	if err != nil {
		auth.WriteError(response, err)
		return
	}
	_ = response.WriteHeaderAndJson(http.StatusOK, permission, restful.MIME_JSON)
}

func (ctl *PermissionController) deletePermissionHandler(request *restful.Request, response *restful.Response) {
	identity, ok := resolveIdentity(ctl.resolver, request, response)
	if !ok {
		return
	}

	id, ok := uintParam(request.PathParameter("permission-id"))
	if !ok {
		writeBadRequest(response, "Invalid permission id")
		return
	}

	if err := ctl.permissionService.DeletePermission(request.Request.Context(), identity, id); err != nil {
		auth.WriteError(response, err)
		return
	}
	response.WriteHeader(http.StatusNoContent)
}
