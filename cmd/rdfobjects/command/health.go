package command

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cayleygraph/rdfobjects/internal/db"
)

const defaultAddress = "http://localhost:64280/"

func NewHealthCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "health [address]",
		Short: "Health check HTTP server, or the SPARQL endpoint with --sparql",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) > 1 {
				return fmt.Errorf("Too many arguments provided, expected 0 or 1")
			}
			if sparql, _ := cmd.Flags().GetBool("sparql"); sparql {
				cfg, err := LoadConfig()
				if err != nil {
					return err
				}
				if cfg.Endpoint == "" {
					return fmt.Errorf("endpoint is not set")
				}
				return db.Endpoint(cfg).Ping(context.Background())
			}
			address := defaultAddress
			if len(args) == 1 {
				address = args[0]
			}
			resp, err := http.Get(strings.TrimSuffix(address, "/") + "/health")
			if err != nil {
				return err
			}
			resp.Body.Close()
			if resp.StatusCode/100 != 2 {
				return fmt.Errorf("unhealthy: %s", resp.Status)
			}
			return nil
		},
	}
	cmd.Flags().Bool("sparql", false, "check the SPARQL endpoint instead")
	return cmd
}
