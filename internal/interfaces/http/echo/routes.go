package echo

import e "github.com/labstack/echo/v4"

func RegisterRoutes(server *e.Echo, importHandler *ImportHandler, processHandler *ProcessHandler) {
	server.POST("/api/v1/imports", importHandler.EnqueueImport)
	server.GET("/api/v1/imports/:id", importHandler.GetImportJob)
	server.POST("/functions/v1/process-import", processHandler.ProcessImport)
}
