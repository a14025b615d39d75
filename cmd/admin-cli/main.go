package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"srql-engine/internal/auth"
	"srql-engine/internal/config"
)

var (
	serverURL string
	authToken string

	httpClient = &http.Client{Timeout: 30 * time.Second}
)

var rootCmd = &cobra.Command{
	Use:   "console-admin",
	Short: "Console backend administration CLI",
	Long:  `A command-line interface for running queries and managing edge onboarding packages.`,
}

var queryCmd = &cobra.Command{
	Use:   "query",
	Short: "Query operations",
}

var queryRunCmd = &cobra.Command{
	Use:   "run <query>",
	Short: "Execute a query",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt64("limit")
		cursor, _ := cmd.Flags().GetString("cursor")
		return postJSON("/api/query", map[string]interface{}{
			"query":  args[0],
			"limit":  limit,
			"cursor": cursor,
		})
	},
}

var queryTranslateCmd = &cobra.Command{
	Use:   "translate <query>",
	Short: "Render a query to SQL without executing it",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return postJSON("/api/query/translate", map[string]interface{}{"query": args[0]})
	},
}

var queryEntitiesCmd = &cobra.Command{
	Use:   "entities",
	Short: "List queryable entities",
	RunE: func(cmd *cobra.Command, args []string) error {
		return getJSON("/api/query/entities", nil)
	},
}

var packagesCmd = &cobra.Command{
	Use:   "packages",
	Short: "Edge onboarding package operations",
}

var packagesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List packages",
	RunE: func(cmd *cobra.Command, args []string) error {
		params := url.Values{}
		for _, key := range []string{"status", "type", "poller-id", "component-id", "parent-id"} {
			if value, _ := cmd.Flags().GetString(key); value != "" {
				params.Set(strings.ReplaceAll(key, "-", "_"), value)
			}
		}
		return getJSON("/api/admin/edge-packages", params)
	},
}

var packagesCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Issue a new package",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		selectors, _ := cmd.Flags().GetStringSlice("selector")
		componentType, _ := cmd.Flags().GetString("type")
		parentID, _ := cmd.Flags().GetString("parent-id")
		pollerID, _ := cmd.Flags().GetString("poller-id")
		site, _ := cmd.Flags().GetString("site")
		notes, _ := cmd.Flags().GetString("notes")
		ttl, _ := cmd.Flags().GetString("ttl")
		return postJSON("/api/admin/edge-packages", map[string]interface{}{
			"name":           args[0],
			"component_type": componentType,
			"parent_id":      parentID,
			"poller_id":      pollerID,
			"site":           site,
			"selectors":      selectors,
			"notes":          notes,
			"ttl":            ttl,
		})
	},
}

var packagesGetCmd = &cobra.Command{
	Use:   "get <id>",
	Short: "Show one package",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return getJSON("/api/admin/edge-packages/"+args[0], nil)
	},
}

var packagesRevokeCmd = &cobra.Command{
	Use:   "revoke <id>",
	Short: "Revoke a package",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		reason, _ := cmd.Flags().GetString("reason")
		return postJSON("/api/admin/edge-packages/"+args[0]+"/revoke", map[string]interface{}{"reason": reason})
	},
}

var packagesActivateCmd = &cobra.Command{
	Use:   "activate <id>",
	Short: "Mark a delivered package as activated",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return postJSON("/api/admin/edge-packages/"+args[0]+"/activate", nil)
	},
}

var packagesDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Soft-delete a package",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		reason, _ := cmd.Flags().GetString("reason")
		payload, err := json.Marshal(map[string]string{"reason": reason})
		if err != nil {
			return err
		}
		return request(http.MethodDelete, "/api/admin/edge-packages/"+args[0],
			bytes.NewReader(payload), map[string]string{"Content-Type": "application/json"})
	},
}

var packagesEventsCmd = &cobra.Command{
	Use:   "events <id>",
	Short: "Show a package's audit trail",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return getJSON("/api/admin/edge-packages/"+args[0]+"/events", nil)
	},
}

var packagesDefaultsCmd = &cobra.Command{
	Use:   "defaults",
	Short: "Show issuance defaults",
	RunE: func(cmd *cobra.Command, args []string) error {
		return getJSON("/api/admin/edge-packages/defaults", nil)
	},
}

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Access token operations",
}

var tokenIssueCmd = &cobra.Command{
	Use:   "issue <user>",
	Short: "Mint an access token using the configured JWT secret",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		if cfg.Auth.JWTSecret == "" {
			return fmt.Errorf("JWT_SECRET is not set")
		}

		ttl, err := time.ParseDuration(cfg.Auth.TokenExpiry)
		if err != nil {
			return fmt.Errorf("invalid token expiry %q: %w", cfg.Auth.TokenExpiry, err)
		}
		roles, _ := cmd.Flags().GetStringSlice("role")

		manager := auth.NewTokenManager([]byte(cfg.Auth.JWTSecret), cfg.Auth.JWTIssuer, ttl)
		token, err := manager.Generate(args[0], roles)
		if err != nil {
			return err
		}
		fmt.Println(token)
		return nil
	},
}

func getJSON(path string, params url.Values) error {
	if len(params) > 0 {
		path += "?" + params.Encode()
	}
	return request(http.MethodGet, path, nil, nil)
}

func postJSON(path string, body map[string]interface{}) error {
	for key, value := range body {
		switch v := value.(type) {
		case string:
			if v == "" {
				delete(body, key)
			}
		case int64:
			if v == 0 {
				delete(body, key)
			}
		case []string:
			if len(v) == 0 {
				delete(body, key)
			}
		}
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}
	return request(http.MethodPost, path, bytes.NewReader(payload), map[string]string{
		"Content-Type": "application/json",
	})
}

func request(method, path string, body io.Reader, headers map[string]string) error {
	req, err := http.NewRequest(method, strings.TrimRight(serverURL, "/")+path, body)
	if err != nil {
		return err
	}
	if authToken != "" {
		req.Header.Set("Authorization", "Bearer "+authToken)
	}
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	printBody(data)

	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("server returned %s", resp.Status)
	}
	return nil
}

func printBody(data []byte) {
	if len(data) == 0 {
		return
	}
	var pretty bytes.Buffer
	if err := json.Indent(&pretty, data, "", "  "); err != nil {
		fmt.Println(string(data))
		return
	}
	fmt.Println(pretty.String())
}

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", envOr("CONSOLE_URL", "http://localhost:8090"), "console backend URL")
	rootCmd.PersistentFlags().StringVar(&authToken, "token", os.Getenv("CONSOLE_TOKEN"), "bearer token for admin endpoints")

	queryRunCmd.Flags().Int64("limit", 0, "page size override")
	queryRunCmd.Flags().String("cursor", "", "pagination cursor from a previous page")
	queryCmd.AddCommand(queryRunCmd, queryTranslateCmd, queryEntitiesCmd)
	rootCmd.AddCommand(queryCmd)

	packagesListCmd.Flags().String("status", "", "comma-separated status filter")
	packagesListCmd.Flags().String("type", "", "comma-separated component type filter")
	packagesListCmd.Flags().String("poller-id", "", "filter by poller")
	packagesListCmd.Flags().String("component-id", "", "filter by component")
	packagesListCmd.Flags().String("parent-id", "", "filter by parent component")
	packagesCreateCmd.Flags().String("type", "", "component type: poller, agent, or checker")
	packagesCreateCmd.Flags().String("parent-id", "", "parent component id")
	packagesCreateCmd.Flags().String("poller-id", "", "owning poller id")
	packagesCreateCmd.Flags().String("site", "", "site label")
	packagesCreateCmd.Flags().StringSlice("selector", nil, "selector assigned to the package, repeatable")
	packagesCreateCmd.Flags().String("notes", "", "free-form notes")
	packagesCreateCmd.Flags().String("ttl", "", "download token TTL override, e.g. 30m")
	packagesRevokeCmd.Flags().String("reason", "", "revocation reason recorded in the audit trail")
	packagesDeleteCmd.Flags().String("reason", "", "deletion reason recorded in the audit trail")
	packagesCmd.AddCommand(
		packagesListCmd, packagesCreateCmd, packagesGetCmd,
		packagesRevokeCmd, packagesActivateCmd, packagesDeleteCmd,
		packagesEventsCmd, packagesDefaultsCmd,
	)
	rootCmd.AddCommand(packagesCmd)

	tokenIssueCmd.Flags().StringSlice("role", []string{"admin"}, "role claim, repeatable")
	tokenCmd.AddCommand(tokenIssueCmd)
	rootCmd.AddCommand(tokenCmd)
}

func envOr(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
