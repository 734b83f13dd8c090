package handler

import (
	"github.com/campus/docgen/docs"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// RegisterSwagger serves the OpenAPI document and its UI under /swagger.
// basePath is the versioned API prefix the documented routes live under.
func RegisterSwagger(engine *gin.Engine, basePath string) {
	docs.SwaggerInfo.BasePath = basePath
	engine.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
}
