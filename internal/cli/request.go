package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/beevik/etree"
	"github.com/spf13/cobra"

	"github.com/artpar/svcclient/internal/config"
	"github.com/artpar/svcclient/internal/service"
	"github.com/artpar/svcclient/internal/transport"
)

// RequestOptions holds options for the request command.
type RequestOptions struct {
	ConfigPath string
	Domain     string
	Scheme     string
	Backend    string
	Proxy      string
	CookieDir  string
	CookieDB   string
	Decode     string
	Params     []string
	Headers    []string
	Data       string
	Timeout    time.Duration
	JSON       bool
}

// NewRequestCommand creates the request command.
func NewRequestCommand(version string) *cobra.Command {
	opts := &RequestOptions{}

	cmd := &cobra.Command{
		Use:   "request METHOD RESOURCE",
		Short: "Call a service resource",
		Long: `Call a resource of the configured service and print the decoded response.

Examples:
  svcclient request GET users --domain api.example.com -p limit=10 -p debug
  svcclient request POST login --domain api.example.com --cookie-dir ~/.svc -p user=ann
  svcclient request GET feed.xml --config service.yaml --decode xml --backend legacy`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRequest(cmd, strings.ToUpper(args[0]), args[1], version, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.ConfigPath, "config", "c", "", "Service config file (YAML)")
	cmd.Flags().StringVar(&opts.Domain, "domain", "", "Service domain (host or host:port)")
	cmd.Flags().StringVar(&opts.Scheme, "scheme", "", "URL scheme (https or http)")
	cmd.Flags().StringVar(&opts.Backend, "backend", "", "Transport backend (modern or legacy)")
	cmd.Flags().StringVar(&opts.Proxy, "proxy", "", "Proxy address (host:port or scheme://host:port)")
	cmd.Flags().StringVar(&opts.CookieDir, "cookie-dir", "", "Persist cookies as files in this directory")
	cmd.Flags().StringVar(&opts.CookieDB, "cookie-db", "", "Persist cookies in this SQLite database")
	cmd.Flags().StringVar(&opts.Decode, "decode", "", "Response decoding (raw, json_map, json_object, xml, html)")
	cmd.Flags().StringArrayVarP(&opts.Params, "param", "p", nil, "Request parameter (format: key=value, or a bare flag)")
	cmd.Flags().StringArrayVarP(&opts.Headers, "header", "H", nil, "Request headers (format: Key:Value)")
	cmd.Flags().StringVarP(&opts.Data, "data", "d", "", "JSON request body")
	cmd.Flags().DurationVar(&opts.Timeout, "timeout", 30*time.Second, "Request timeout")
	cmd.Flags().BoolVar(&opts.JSON, "json", false, "Output response as JSON")

	cmd.MarkFlagsMutuallyExclusive("cookie-dir", "cookie-db")

	return cmd
}

// serviceConfig merges the config file, the environment and the flags.
func (o *RequestOptions) serviceConfig(cmd *cobra.Command, version string) (service.Config, error) {
	f := &config.File{}
	if o.ConfigPath != "" {
		loaded, err := config.Load(o.ConfigPath)
		if err != nil {
			return service.Config{}, err
		}
		f = loaded
	} else {
		f.ApplyEnv()
	}

	flags := cmd.Flags()
	if flags.Changed("domain") {
		f.Domain = o.Domain
	}
	if flags.Changed("scheme") {
		f.Scheme = o.Scheme
	}
	if flags.Changed("backend") {
		f.Backend = o.Backend
	}
	if flags.Changed("proxy") {
		f.Proxy = o.Proxy
	}
	if flags.Changed("decode") {
		f.Decode = o.Decode
	}
	if flags.Changed("cookie-dir") {
		f.Cookies = config.Cookies{Mode: string(service.CookiesFile), Path: o.CookieDir}
	}
	if flags.Changed("cookie-db") {
		f.Cookies = config.Cookies{Mode: string(service.CookiesSQLite), Path: o.CookieDB}
	}
	if flags.Changed("timeout") || f.Timeout == "" {
		f.Timeout = o.Timeout.String()
	}
	if f.Version == "" {
		f.Version = version
	}

	return f.ServiceConfig()
}

func runRequest(cmd *cobra.Command, method, resource, version string, opts *RequestOptions) error {
	cfg, err := opts.serviceConfig(cmd, version)
	if err != nil {
		return err
	}

	client, err := service.New(cfg, service.WithLogger(newLogger(cmd, cmd.ErrOrStderr())))
	if err != nil {
		return err
	}
	defer client.Close()

	call := &service.Call{
		Method:   method,
		Resource: resource,
		Params:   parseParams(opts.Params),
		Header:   parseHeaders(opts.Headers),
	}
	if opts.Data != "" {
		var body any
		if err := json.Unmarshal([]byte(opts.Data), &body); err != nil {
			return fmt.Errorf("invalid JSON body: %w", err)
		}
		call.JSON = body
	}

	res, err := client.Do(context.Background(), call)
	if err != nil {
		var terr *transport.Error
		if errors.As(err, &terr) && terr.StatusCode != 0 {
			fmt.Fprintln(cmd.ErrOrStderr(), statusStyle(terr.StatusCode).Render(fmt.Sprintf("HTTP %d", terr.StatusCode)))
		}
		return fmt.Errorf("request failed: %w", err)
	}

	if opts.JSON {
		return outputJSON(cmd, res)
	}
	return outputHuman(cmd, res)
}

func outputJSON(cmd *cobra.Command, res *service.Result) error {
	result := map[string]any{
		"status":  res.StatusCode,
		"headers": res.Header,
		"body":    string(res.Body),
	}
	if res.URL != nil {
		result["url"] = res.URL.String()
	}
	switch v := res.Value.(type) {
	case string, *etree.Document:
	default:
		result["value"] = v
	}

	encoder := json.NewEncoder(cmd.OutOrStdout())
	encoder.SetIndent("", "  ")
	return encoder.Encode(result)
}

func outputHuman(cmd *cobra.Command, res *service.Result) error {
	out := cmd.OutOrStdout()

	fmt.Fprintln(out, statusStyle(res.StatusCode).Render(fmt.Sprintf("HTTP %d %s", res.StatusCode, http.StatusText(res.StatusCode))))
	if res.URL != nil {
		fmt.Fprintf(out, "%s %s\n", labelStyle.Render("URL:"), res.URL)
	}
	fmt.Fprintln(out)

	fmt.Fprintln(out, headingStyle.Render("Headers"))
	keys := make([]string, 0, len(res.Header))
	for key := range res.Header {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		for _, value := range res.Header[key] {
			fmt.Fprintf(out, "  %s %s\n", labelStyle.Render(key+":"), value)
		}
	}
	fmt.Fprintln(out)

	if len(res.Body) == 0 {
		return nil
	}
	fmt.Fprintln(out, headingStyle.Render("Body"))

	switch v := res.Value.(type) {
	case *etree.Document:
		v.Indent(2)
		s, err := v.WriteToString()
		if err != nil {
			return err
		}
		fmt.Fprint(out, s)
	case string:
		fmt.Fprintln(out, v)
	default:
		fmt.Fprintln(out, newJSONHighlighter().Format(res.Body))
	}

	return nil
}

// parseParams converts key=value strings to values. A bare word is a flag
// and is sent as its own value.
func parseParams(paramStrs []string) url.Values {
	if len(paramStrs) == 0 {
		return nil
	}
	params := url.Values{}
	for _, p := range paramStrs {
		key, value, ok := strings.Cut(p, "=")
		if !ok {
			value = key
		}
		if key == "" {
			continue
		}
		params.Add(key, value)
	}
	return params
}

// parseHeaders converts header strings to a header map.
func parseHeaders(headerStrs []string) http.Header {
	if len(headerStrs) == 0 {
		return nil
	}
	headers := http.Header{}
	for _, h := range headerStrs {
		key, value, ok := strings.Cut(h, ":")
		if !ok {
			continue
		}
		headers.Add(strings.TrimSpace(key), strings.TrimSpace(value))
	}
	return headers
}
