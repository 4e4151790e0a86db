package controllers

import (
	"net/http"

	restfulspec "github.com/emicklei/go-restful-openapi/v2"
	restful "github.com/emicklei/go-restful/v3"
	"gorm.io/gorm"
)

// HealthController reports process liveness and database reachability.
type HealthController struct {
	db *gorm.DB
}

func NewHealthController(db *gorm.DB) *HealthController {
	return &HealthController{db: db}
}

type HealthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
}

func (ctl *HealthController) RegisterRoutes(ws *restful.WebService) {
	ws.Path("/health").Produces(restful.MIME_JSON)

	ws.Route(ws.GET("").To(ctl.healthHandler).
		Doc("Health check").
		Metadata(restfulspec.KeyOpenAPITags, []string{"health"}).
		Returns(http.StatusOK, "Service healthy", HealthResponse{}).
		Returns(http.StatusInternalServerError, "Database unreachable", HealthResponse{}))
}

func (ctl *HealthController) healthHandler(request *restful.Request, response *restful.Response) {
	sqlDB, err := ctl.db.DB()
	if err == nil {
		err = sqlDB.PingContext(request.Request.Context())
	}
	if err != nil {
		_ = response.WriteHeaderAndJson(http.StatusInternalServerError,
			HealthResponse{Status: "degraded", Database: "unreachable"}, restful.MIME_JSON)
		return
	}
	_ = response.WriteHeaderAndJson(http.StatusOK,
		HealthResponse{Status: "ok", Database: "ok"}, restful.MIME_JSON)
}
