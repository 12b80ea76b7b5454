package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/warriorapp/warriord/internal/config"
)

// anonClient builds a client with no session token, for the auth endpoints.
func anonClient() (*apiClient, string, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, "", fmt.Errorf("loading config: %w", err)
	}
	return &apiClient{
		baseURL:    fmt.Sprintf("http://127.0.0.1:%d", cfg.Server.Port),
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}, cfg.Storage.DataDir, nil
}

func readPassword(cmd *cobra.Command) (string, error) {
	if p, _ := cmd.Flags().GetString("password"); p != "" {
		return p, nil
	}
	if p := os.Getenv("WARRIORD_PASSWORD"); p != "" {
		return p, nil
	}
	fmt.Fprint(os.Stderr, "Password: ")
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("reading password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// --- login / signup ---

var loginCmd = &cobra.Command{
	Use:   "login <email>",
	Short: "Log in and store a CLI session token",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		password, err := readPassword(cmd)
		if err != nil {
			return err
		}

		client, dataDir, err := anonClient()
		if err != nil {
			return err
		}

		resp, err := client.post(cmd.Context(), "/auth/login", map[string]string{
			"email":    args[0],
			"password": password,
		})
		if err != nil {
			return err
		}

		var result struct {
			Token   string `json:"token"`
			Profile struct {
				Name string `json:"name"`
				Rank string `json:"rank"`
			} `json:"profile"`
		}
		if err := decodeJSON(resp, &result); err != nil {
			return err
		}

		if err := writeCLIToken(dataDir, result.Token); err != nil {
			return fmt.Errorf("storing session token: %w", err)
		}
		printSuccess("Logged in as %s (%s)", result.Profile.Name, result.Profile.Rank)
		return nil
	},
}

var signupCmd = &cobra.Command{
	Use:   "signup <email> <name>",
	Short: "Create an account and store a CLI session token",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		password, err := readPassword(cmd)
		if err != nil {
			return err
		}

		client, dataDir, err := anonClient()
		if err != nil {
			return err
		}

		resp, err := client.post(cmd.Context(), "/auth/signup", map[string]string{
			"email":    args[0],
			"name":     args[1],
			"password": password,
		})
		if err != nil {
			return err
		}

		var result struct {
			Token   string `json:"token"`
			Profile struct {
				Rank string `json:"rank"`
			} `json:"profile"`
		}
		if err := decodeJSON(resp, &result); err != nil {
			return err
		}

		if err := writeCLIToken(dataDir, result.Token); err != nil {
			return fmt.Errorf("storing session token: %w", err)
		}
		printSuccess("Welcome, %s. Starting rank: %s", args[1], result.Profile.Rank)
		return nil
	},
}

func init() {
	loginCmd.Flags().String("password", "", "password (prompted if omitted)")
	signupCmd.Flags().String("password", "", "password (prompted if omitted)")
}

// --- tasks ---

type taskView struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Category  string `json:"category"`
	TaskType  string `json:"task_type"`
	Status    string `json:"status"`
	XP        int    `json:"xp"`
	CreatedAt string `json:"created_at"`
}

var tasksCmd = &cobra.Command{
	Use:   "tasks",
	Short: "Manage tasks",
}

var tasksListCmd = &cobra.Command{
	Use:   "list",
	Short: "List tasks",
	RunE: func(cmd *cobra.Command, args []string) error {
		status, _ := cmd.Flags().GetString("status")

		client, err := newAPIClient()
		if err != nil {
			return err
		}

		path := "/tasks"
		if status != "" {
			path += "?status=" + status
		}
		resp, err := client.get(cmd.Context(), path)
		if err != nil {
			return err
		}

		var tasks []taskView
		if err := decodeJSON(resp, &tasks); err != nil {
			return err
		}

		if len(tasks) == 0 {
			fmt.Println("No tasks found.")
			return nil
		}

		for _, t := range tasks {
			label := t.Status
			if t.Status == "completed" {
				label = fmt.Sprintf("completed (+%d XP)", t.XP)
			}
			fmt.Printf("%s  %-12s  %-10s  %s\n",
				colorize(colorCyan, t.ID[:8]),
				label,
				t.Category,
				t.Title,
			)
		}
		return nil
	},
}

var tasksAddCmd = &cobra.Command{
	Use:   "add <title>",
	Short: "Create a task",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		category, _ := cmd.Flags().GetString("category")
		taskType, _ := cmd.Flags().GetString("type")
		description, _ := cmd.Flags().GetString("description")

		client, err := newAPIClient()
		if err != nil {
			return err
		}

		req := map[string]any{"title": strings.Join(args, " ")}
		if category != "" {
			req["category"] = category
		}
		if taskType != "" {
			req["task_type"] = taskType
		}
		if description != "" {
			req["description"] = description
		}

		resp, err := client.post(cmd.Context(), "/tasks", req)
		if err != nil {
			return err
		}

		var task taskView
		if err := decodeJSON(resp, &task); err != nil {
			return err
		}

		printSuccess("Created task %s (%s, %s)", task.ID[:8], task.Category, task.TaskType)
		return nil
	},
}

// resolveTaskID expands a unique prefix to a full task ID.
func resolveTaskID(ctx context.Context, client *apiClient, prefix string) (string, error) {
	resp, err := client.get(ctx, "/tasks")
	if err != nil {
		return "", err
	}

	var tasks []taskView
	if err := decodeJSON(resp, &tasks); err != nil {
		return "", err
	}

	var matches []string
	for _, t := range tasks {
		if strings.HasPrefix(t.ID, prefix) {
			matches = append(matches, t.ID)
		}
	}
	switch len(matches) {
	case 0:
		return "", fmt.Errorf("no task matches %q", prefix)
	case 1:
		return matches[0], nil
	default:
		return "", fmt.Errorf("%d tasks match %q, use a longer prefix", len(matches), prefix)
	}
}

func taskActionCommand(use, short, action, verb string) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newAPIClient()
			if err != nil {
				return err
			}

			id, err := resolveTaskID(cmd.Context(), client, args[0])
			if err != nil {
				return err
			}

			resp, err := client.post(cmd.Context(), "/tasks/"+id+"/"+action, nil)
			if err != nil {
				return err
			}

			if action == "complete" {
				var result struct {
					Task struct {
						Title string `json:"title"`
						XP    int    `json:"xp"`
					} `json:"task"`
					Profile struct {
						TotalXP int    `json:"total_xp"`
						Rank    string `json:"rank"`
					} `json:"profile"`
				}
				if err := decodeJSON(resp, &result); err != nil {
					return err
				}
				printSuccess("Completed %q for %d XP. Total: %d XP, rank: %s",
					result.Task.Title, result.Task.XP, result.Profile.TotalXP, result.Profile.Rank)
				return nil
			}

			var task taskView
			if err := decodeJSON(resp, &task); err != nil {
				return err
			}
			printSuccess("%s task %s", verb, task.ID[:8])
			return nil
		},
	}
}

func init() {
	tasksListCmd.Flags().String("status", "", "filter by status (pending, in_progress, completed, cancelled)")
	tasksAddCmd.Flags().String("category", "", "category id (default: personal)")
	tasksAddCmd.Flags().String("type", "", "task type: main or side (default: main)")
	tasksAddCmd.Flags().String("description", "", "task description")

	tasksCmd.AddCommand(tasksListCmd)
	tasksCmd.AddCommand(tasksAddCmd)
	tasksCmd.AddCommand(taskActionCommand("start <id>", "Start working on a task", "start", "Started"))
	tasksCmd.AddCommand(taskActionCommand("done <id>", "Complete a task and collect its XP", "complete", "Completed"))
	tasksCmd.AddCommand(taskActionCommand("cancel <id>", "Cancel a task", "cancel", "Cancelled"))
}

// --- stats ---

type statsView struct {
	TotalXP int `json:"total_xp"`
	Rank    struct {
		Current struct {
			Name string `json:"name"`
			Icon string `json:"icon"`
		} `json:"current"`
		Next *struct {
			Name string `json:"name"`
		} `json:"next"`
		Percent     float64 `json:"percent"`
		XPRemaining int     `json:"xp_remaining"`
	} `json:"rank"`
	CompletedToday    int `json:"completed_today"`
	CompletedThisWeek int `json:"completed_this_week"`
	CompletedTotal    int `json:"completed_total"`
	OpenTasks         int `json:"open_tasks"`
	Throne            struct {
		Unlocked  bool `json:"unlocked"`
		Remaining int  `json:"remaining"`
	} `json:"throne"`
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show warrior progression",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.get(cmd.Context(), "/stats")
		if err != nil {
			return err
		}

		var stats statsView
		if err := decodeJSON(resp, &stats); err != nil {
			return err
		}

		printStatus("Rank", "%s %s", stats.Rank.Current.Name, stats.Rank.Current.Icon)
		printStatus("Total XP", "%d", stats.TotalXP)
		if stats.Rank.Next != nil {
			printStatus("Next rank", "%s (%d XP to go, %.0f%%)",
				stats.Rank.Next.Name, stats.Rank.XPRemaining, stats.Rank.Percent)
		}
		printStatus("Completed", "today %d, this week %d, total %d",
			stats.CompletedToday, stats.CompletedThisWeek, stats.CompletedTotal)
		printStatus("Open tasks", "%d", stats.OpenTasks)
		if stats.Throne.Unlocked {
			printStatus("Throne room", "open")
		} else {
			printStatus("Throne room", "locked (%d more completions)", stats.Throne.Remaining)
		}
		return nil
	},
}

// --- quests ---

var questsCmd = &cobra.Command{
	Use:   "quests",
	Short: "Ask the King for quest suggestions",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.post(cmd.Context(), "/king/quests", nil)
		if err != nil {
			return err
		}

		var result struct {
			Quests []struct {
				Title       string `json:"title"`
				Description string `json:"description"`
				Category    string `json:"category"`
				TaskType    string `json:"taskType"`
			} `json:"quests"`
			Warnings []string `json:"warnings"`
		}
		if err := decodeJSON(resp, &result); err != nil {
			return err
		}

		if len(result.Quests) == 0 {
			fmt.Println("The King has no quests for you right now.")
			return nil
		}

		for i, q := range result.Quests {
			fmt.Printf("\n%s [%s, %s]\n", colorize(colorBold, fmt.Sprintf("Quest %d: %s", i+1, q.Title)), q.Category, q.TaskType)
			if q.Description != "" {
				fmt.Printf("  %s\n", q.Description)
			}
		}
		for _, w := range result.Warnings {
			printWarning("%s", w)
		}
		return nil
	},
}

// --- profile ---

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Manage the warrior profile",
}

var profileShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the current profile as JSON",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.get(cmd.Context(), "/profile")
		if err != nil {
			return err
		}

		var profile any
		if err := decodeJSON(resp, &profile); err != nil {
			return err
		}
		return printJSON(profile)
	},
}

var profileSetCmd = &cobra.Command{
	Use:   "set <field> <value>",
	Short: "Set a profile field (name, avatar_url, ai_personality)",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		field, value := args[0], args[1]

		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.patch(cmd.Context(), "/profile", map[string]string{field: value})
		if err != nil {
			return err
		}

		var profile any
		if err := decodeJSON(resp, &profile); err != nil {
			return err
		}

		printSuccess("Set %s = %s", field, value)
		return nil
	},
}

func init() {
	profileCmd.AddCommand(profileShowCmd)
	profileCmd.AddCommand(profileSetCmd)
}

// --- interactions ---

var interactionsCmd = &cobra.Command{
	Use:   "interactions",
	Short: "Manage AI interaction history",
}

var interactionsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent AI interactions",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		client, err := newAPIClient()
		if err != nil {
			return err
		}

		path := fmt.Sprintf("/interactions?limit=%d", limit)
		resp, err := client.get(cmd.Context(), path)
		if err != nil {
			return err
		}

		var interactions []struct {
			ID        string `json:"id"`
			Kind      string `json:"kind"`
			Role      string `json:"role"`
			Content   string `json:"content"`
			CreatedAt string `json:"created_at"`
		}
		if err := decodeJSON(resp, &interactions); err != nil {
			return err
		}

		if len(interactions) == 0 {
			fmt.Println("No interactions found.")
			return nil
		}

		for _, ix := range interactions {
			content := ix.Content
			if len(content) > 80 {
				content = content[:80] + "..."
			}
			fmt.Printf("%s  %-10s  %-9s  %s\n",
				colorize(colorCyan, ix.ID[:8]),
				ix.Kind,
				ix.Role,
				content,
			)
		}
		return nil
	},
}

var interactionsDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete an interaction",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.delete(cmd.Context(), "/interactions/"+args[0])
		if err != nil {
			return err
		}

		var result map[string]string
		if err := decodeJSON(resp, &result); err != nil {
			return err
		}

		printSuccess("Deleted interaction %s", args[0])
		return nil
	},
}

func init() {
	interactionsListCmd.Flags().Int("limit", 20, "maximum number of interactions to list")
	interactionsCmd.AddCommand(interactionsListCmd)
	interactionsCmd.AddCommand(interactionsDeleteCmd)
}

// --- config ---

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or update configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}

		keys := config.ShowAll(cfg)
		for _, k := range keys {
			fmt.Printf("  %s = %s\n", colorize(colorBold, k.Key), k.Value)
		}
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, value := args[0], args[1]

		if err := config.SetKey(key, value); err != nil {
			return err
		}

		printSuccess("Set %s = %s", key, value)
		return nil
	},
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
}

// printJSON is used by commands that dump raw API responses.
func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
