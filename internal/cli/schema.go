package cli

import (
	"encoding/json"
	"fmt"

	"github.com/invopop/jsonschema"
	"github.com/spf13/cobra"

	"github.com/dshills/promptscore/internal/evaluation"
)

var schemaTargets = map[string]func() any{
	"request":  func() any { return &evaluation.Request{} },
	"response": func() any { return &evaluation.Response{} },
	"report":   func() any { return &evaluation.Report{} },
}

var schemaCmd = &cobra.Command{
	Use:       "schema [request|response|report]",
	Short:     "Print the JSON schema of the service contract or the JSON report",
	Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
	ValidArgs: []string{"request", "response", "report"},
	RunE: func(cmd *cobra.Command, args []string) error {
		target := "response"
		if len(args) == 1 {
			target = args[0]
		}
		data, err := reflectSchema(target)
		if err != nil {
			fail(cmd, err)
			return nil
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil
	},
}

func reflectSchema(target string) ([]byte, error) {
	newValue, ok := schemaTargets[target]
	if !ok {
		return nil, usagef("unknown schema %q", target)
	}
	r := jsonschema.Reflector{
		ExpandedStruct: true,
		DoNotReference: true,
	}
	s := r.Reflect(newValue())
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling schema: %w", err)
	}
	return data, nil
}
