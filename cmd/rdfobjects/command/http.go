package command

import (
	"net"
	"net/http"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/cayleygraph/rdfobjects/clog"
	"github.com/cayleygraph/rdfobjects/internal/db"
	chttp "github.com/cayleygraph/rdfobjects/internal/http"
)

const (
	keyRequestTimeout = "http.timeout"
	keyMaxLimit       = "http.max_limit"
)

func NewHttpCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "http",
		Short: "Serve the object API on the given host and port.",
		RunE: func(cmd *cobra.Command, args []string) error {
			p := mustSetupProfile(cmd)
			defer mustFinishProfile(p)

			ctx, cancel := getContext()
			defer cancel()
			m, cfg, err := openModel(ctx)
			if err != nil {
				return err
			}
			h := chttp.SetupRoutes(m, &chttp.Config{
				Timeout:  viper.GetDuration(keyRequestTimeout),
				MaxLimit: viper.GetInt(keyMaxLimit),
				Endpoint: db.Endpoint(cfg),
			})

			host, _ := cmd.Flags().GetString("host")
			if !cmd.Flags().Changed("host") && cfg.ListenPort != "" {
				host = net.JoinHostPort(cfg.ListenHost, cfg.ListenPort)
			}
			phost := host
			if host, port, err := net.SplitHostPort(host); err == nil && host == "" {
				phost = net.JoinHostPort("localhost", port)
			}
			clog.Infof("listening on %s, objects at http://%s/api/v1/objects", host, phost)

			srv := &http.Server{Addr: host, Handler: h}
			go func() {
				<-ctx.Done()
				srv.Close()
			}()
			if err := srv.ListenAndServe(); err != http.ErrServerClosed {
				return err
			}
			return nil
		},
	}
	cmd.Flags().String("host", "127.0.0.1:64280", "host:port to listen on")
	cmd.Flags().Duration("request_timeout", 0, "elapsed time until an individual request times out")
	cmd.Flags().Int("max_limit", 1000, "maximal page size")
	viper.BindPFlag(keyRequestTimeout, cmd.Flags().Lookup("request_timeout"))
	viper.BindPFlag(keyMaxLimit, cmd.Flags().Lookup("max_limit"))
	return cmd
}
