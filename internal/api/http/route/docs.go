package route

import (
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"withdrawal-service/internal/docs"
)

// RegisterDocs serves the withdrawal API swagger UI under g. A bare GET on g redirects to the UI.
func RegisterDocs(g *gin.RouterGroup) {
	g.GET("", func(c *gin.Context) {
		c.Redirect(http.StatusMovedPermanently, g.BasePath()+"/swagger/index.html")
	})

	g.GET("/swagger/*any", ginSwagger.WrapHandler(
		swaggerFiles.Handler,
		ginSwagger.InstanceName(docs.SwaggerInfo.InstanceName()),
		ginSwagger.DocExpansion("list"),
	))
}
