package cli

import (
	"fmt"
	"net/http"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/grussorusso/offsim/utils"
)

var statusHost string
var remotePort int

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Queries the progress of a running simulation",
	RunE:  getStatus,
}

func getStatus(cmd *cobra.Command, args []string) error {
	url := fmt.Sprintf("http://%s:%d/status", statusHost, remotePort)
	resp, err := http.Get(url)
	if err != nil {
		return errors.Wrap(err, "status request failed")
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return errors.Errorf("server response: %v", resp.Status)
	}
	return utils.PrintJsonResponse(resp.Body)
}
