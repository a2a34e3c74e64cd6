package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/opcall-go/opcall/pkg/invoke"
	"github.com/opcall-go/opcall/pkg/params"
)

func InvokeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "invoke <operation>",
		Short: "Invoke a remote operation and print the JSON result",
		Long: `Invoke resolves an operation from the descriptor set, executes it with
the configured transport chain, and prints the result as JSON. Pageable
operations are fully accumulated; long-running operations are polled to
their terminal state.

The operation may be qualified with its group as group.operation; an
unqualified name resolves in the default group.`,
		Args: cobra.ExactArgs(1),
		RunE: runInvoke,
	}

	flags := cmd.Flags()
	flags.StringToString("path", nil, "Path parameters (name=value)")
	flags.StringToString("query", nil, "Query parameters (name=value)")
	flags.StringToString("group", nil, "Grouped parameter fields (name=value)")
	flags.String("body", "", "Raw JSON request body")
	flags.Duration("timeout", 5*time.Minute, "Overall invocation timeout")

	return cmd
}

func runInvoke(cmd *cobra.Command, args []string) error {
	cfg, err := LoadConfig(cmd)
	if err != nil {
		return err
	}
	if err := cfg.validateClient(); err != nil {
		return err
	}

	set, err := LoadDescriptorSet(cfg.Descriptors)
	if err != nil {
		return err
	}

	client, cleanup, err := buildClient(cfg, set)
	if err != nil {
		return err
	}
	defer cleanup()

	group, operation := splitTarget(args[0])
	callArgs, err := collectArgs(cmd)
	if err != nil {
		return err
	}

	timeout, _ := cmd.Flags().GetDuration("timeout")
	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	result, err := client.Invoke(ctx, operation, group, callArgs)
	if err != nil {
		return err
	}

	return printResult(cmd, result)
}

// splitTarget splits "group.operation" into its parts. A bare name
// means the default group.
func splitTarget(target string) (group, operation string) {
	if i := strings.Index(target, "."); i >= 0 {
		return target[:i], target[i+1:]
	}
	return "", target
}

func collectArgs(cmd *cobra.Command) (invoke.Args, error) {
	flags := cmd.Flags()

	pathParams, _ := flags.GetStringToString("path")
	queryParams, _ := flags.GetStringToString("query")
	groupParams, _ := flags.GetStringToString("group")
	body, _ := flags.GetString("body")

	args := invoke.Args{Path: pathParams}

	if len(queryParams) > 0 {
		args.Query = url.Values{}
		for k, v := range queryParams {
			args.Query.Set(k, v)
		}
	}
	if len(groupParams) > 0 {
		args.Group = params.Group{}
		for k, v := range groupParams {
			args.Group[k] = v
		}
	}
	if body != "" {
		if !json.Valid([]byte(body)) {
			return invoke.Args{}, fmt.Errorf("request body is not valid JSON")
		}
		args.Body = json.RawMessage(body)
	}

	return args, nil
}

// printResult writes the invocation outcome as indented JSON: the
// accumulated item array for paged results, the response body otherwise.
func printResult(cmd *cobra.Command, result *invoke.Result) error {
	var raw []byte
	switch {
	case result.Items != nil:
		joined, err := json.Marshal(result.Items)
		if err != nil {
			return err
		}
		raw = joined
	case result.Response != nil && len(result.Response.Body) > 0:
		raw = result.Response.Body
	default:
		fmt.Fprintln(cmd.OutOrStdout(), "{}")
		return nil
	}

	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		// Not JSON after all; print verbatim.
		fmt.Fprintln(cmd.OutOrStdout(), string(raw))
		return nil
	}
	fmt.Fprintln(cmd.OutOrStdout(), buf.String())
	return nil
}
