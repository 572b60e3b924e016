// Copyright 2014 The Cayley Authors. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/cayleygraph/rdfobjects/clog"
	"github.com/cayleygraph/rdfobjects/clog/glog"
	"github.com/cayleygraph/rdfobjects/cmd/rdfobjects/command"
	"github.com/cayleygraph/rdfobjects/version"
)

const configEnv = "RDFOBJECTS_CFG"

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Prints the version of rdfobjects.",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version.String())
		},
	}
}

// NewCmd creates the root command with all subcommands.
func NewCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "rdfobjects",
		Short:         "rdfobjects serves typed objects described by shapes from a SPARQL endpoint.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			file, _ := cmd.Flags().GetString("config")
			if file == "" {
				file = os.Getenv(configEnv)
			}
			viper.Set(command.KeyConfig, file)
			if file != "" {
				clog.Infof("using config file: %s", file)
			}
			return nil
		},
	}
	root.AddCommand(
		newVersionCmd(),
		command.NewListCmd(),
		command.NewGetCmd(),
		command.NewQueryCmd(),
		command.NewHttpCmd(),
		command.NewReplCmd(),
		command.NewHealthCmd(),
	)

	pf := root.PersistentFlags()
	pf.StringP("config", "c", "", "path to an explicit JSON configuration file")
	pf.StringP("endpoint", "e", "", "URL of the SPARQL query endpoint")
	pf.StringToString("header", nil, "HTTP header to send to the endpoint (name=value)")
	pf.DurationP("timeout", "t", 30*time.Second, "elapsed time until an endpoint request times out")
	pf.StringP("shapes", "s", "", `shape description (YAML, JSON or SHACL Turtle; ".gz" supported)`)
	pf.String("shapes_format", "", `shape description format ("yaml" or "shacl"); guessed from the file name if empty`)
	pf.String("main", "", "key of the root shape")
	pf.String("vocab", "", "vocabulary IRI for unprefixed names")
	pf.StringToString("prefix", nil, "namespace prefix (prefix=IRI)")
	pf.Bool("no_order", false, "do not order pages by identifier")
	pf.Bool("two_phase", false, "select page roots with a separate query")
	pf.Int("max_depth", 1, "levels of nested objects to fetch")
	pf.Int("cache_size", 0, "compiled page queries to keep (0 for the default, negative to disable)")
	pf.String("memprofile", "", "path to output the memory profile")
	pf.String("cpuprofile", "", "path to output the CPU profile")

	// bind flags to config variables
	viper.BindPFlag(command.KeyEndpoint, pf.Lookup("endpoint"))
	viper.BindPFlag(command.KeyHeaders, pf.Lookup("header"))
	viper.BindPFlag(command.KeyTimeout, pf.Lookup("timeout"))
	viper.BindPFlag(command.KeyShapes, pf.Lookup("shapes"))
	viper.BindPFlag(command.KeyShapesFormat, pf.Lookup("shapes_format"))
	viper.BindPFlag(command.KeyMainShape, pf.Lookup("main"))
	viper.BindPFlag(command.KeyVocab, pf.Lookup("vocab"))
	viper.BindPFlag(command.KeyPrefixes, pf.Lookup("prefix"))
	viper.BindPFlag(command.KeyNoOrder, pf.Lookup("no_order"))
	viper.BindPFlag(command.KeyTwoPhase, pf.Lookup("two_phase"))
	viper.BindPFlag(command.KeyMaxDepth, pf.Lookup("max_depth"))
	viper.BindPFlag(command.KeyCache, pf.Lookup("cache_size"))
	return root
}

func init() {
	viper.SetEnvPrefix("rdfobjects")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
}

func main() {
	// work around glog flags
	flag.CommandLine.Parse([]string{})
	cmd := NewCmd()
	cmd.PersistentFlags().AddGoFlagSet(flag.CommandLine)
	err := cmd.Execute()
	if err != nil {
		clog.Errorf("%v", err)
	}
	glog.Flush()
	if err != nil {
		os.Exit(1)
	}
}
