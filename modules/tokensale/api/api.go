package api

import (
	"github.com/gaze-network/token-sale/modules/tokensale/api/httphandler"
	"github.com/gaze-network/token-sale/modules/tokensale/usecase"
)

func NewHTTPHandler(usecase *usecase.Usecase) *httphandler.HttpHandler {
	return httphandler.New(usecase)
}
