package api

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/grussorusso/offsim/internal/sim"
)

// ProgressSource provides the state of a running simulation. Progress must
// be safe to call from any goroutine.
type ProgressSource interface {
	Progress() *sim.Progress
}

type StatusInformation struct {
	*sim.Progress
	Url string `json:"url"`
}

// GetServerStatus returns the progress of the simulation.
func GetServerStatus(src ProgressSource, portNumber int) echo.HandlerFunc {
	return func(c echo.Context) error {
		response := StatusInformation{
			Progress: src.Progress(),
			Url:      fmt.Sprintf("http://%s:%d", c.Request().Host, portNumber),
		}
		return c.JSON(http.StatusOK, response)
	}
}
