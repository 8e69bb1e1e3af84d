package utils

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
)

// PrintJsonResponse prints an indented copy of a JSON body to stdout.
func PrintJsonResponse(resp io.ReadCloser) error {
	defer resp.Close()
	body, err := io.ReadAll(resp)
	if err != nil {
		return err
	}

	var out bytes.Buffer
	if err := json.Indent(&out, body, "", "\t"); err != nil {
		return err
	}
	out.WriteString("\n")
	_, err = out.WriteTo(os.Stdout)
	return err
}
