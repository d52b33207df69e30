package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/hmallory/codeforge/assistant"
	"github.com/hmallory/codeforge/modelchannel"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var (
		model     string
		provider  string
		workspace string
		profile   string
		autoReads bool
		verbose   bool
	)

	cmd := &cobra.Command{
		Use:   "codeforge",
		Short: "An interactive coding assistant for your project workspace",
		Long: "codeforge connects a language model to a project directory. The model\n" +
			"reads, creates, and edits files through reviewed tool calls; you confirm\n" +
			"every change before it lands.",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInteractive(model, provider, workspace, profile, autoReads, verbose)
		},
	}

	cmd.Flags().StringVarP(&model, "model", "m", "", "model to use (default from config)")
	cmd.Flags().StringVarP(&provider, "provider", "p", "", "provider override (openai, anthropic)")
	cmd.Flags().StringVarP(&workspace, "workspace", "w", "", "workspace root (default: current directory)")
	cmd.Flags().StringVar(&profile, "profile", "", "named settings profile from the config file")
	cmd.Flags().BoolVar(&autoReads, "auto-approve-reads", false, "run read-only tools without confirmation")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	cmd.AddCommand(newModelsCommand())
	return cmd
}

func newModelsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "models",
		Short: "List known models",
		Run: func(cmd *cobra.Command, args []string) {
			for _, m := range modelchannel.ListModels("") {
				aliases := ""
				if len(m.Aliases) > 0 {
					aliases = " (" + strings.Join(m.Aliases, ", ") + ")"
				}
				fmt.Printf("  %-22s %-10s %s%s\n", m.ID, m.Provider, m.DisplayName, aliases)
			}
		},
	}
}

func buildLogger(verbose bool) (*zap.SugaredLogger, func()) {
	var logger *zap.Logger
	if verbose {
		logger, _ = zap.NewDevelopment()
	} else {
		cfg := zap.NewProductionConfig()
		cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
		logger, _ = cfg.Build()
	}
	return logger.Sugar(), func() { _ = logger.Sync() }
}

func runInteractive(model, provider, workspace, profile string, autoReads, verbose bool) error {
	log, sync := buildLogger(verbose)
	defer sync()

	cfg, err := assistant.LoadConfig()
	if err != nil {
		log.Warnw("config unreadable, using defaults", "error", err)
	}

	var autoAdd []string
	if profile != "" {
		p, err := cfg.Profile(profile)
		if err != nil {
			return err
		}
		if model == "" {
			model = p.Model
		}
		if provider == "" {
			provider = p.Provider
		}
		if workspace == "" {
			workspace = p.Workspace
		}
		autoAdd = p.AutoAddPaths
	}
	if model == "" {
		model = cfg.DefaultModel
	}
	if provider == "" {
		provider = cfg.DefaultProvider
	}

	client := modelchannel.NewClientFromEnv()
	defer client.Close()

	reader := bufio.NewReader(os.Stdin)
	sess, err := assistant.NewSession(assistant.SessionConfig{
		Channel:          client,
		WorkspaceRoot:    workspace,
		Model:            model,
		Provider:         provider,
		Prompter:         &terminalPrompter{reader: reader},
		Logger:           log,
		AutoApproveReads: autoReads || cfg.AutoApproveReads,
		MaxIterations:    cfg.MaxIterations,
	})
	if err != nil {
		return err
	}
	defer sess.Close()

	go consumeEvents(sess.Events())

	for _, path := range autoAdd {
		addContext(sess, path)
	}

	fmt.Printf("codeforge | model %s | workspace %s\n", sess.Model(), sess.Workspace().Root())
	fmt.Println("Type a request, or /help for commands.")

	for {
		fmt.Print("\n> ")
		line, err := reader.ReadString('\n')
		if err != nil {
			fmt.Println()
			return nil
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, "/") {
			if quit := runSlashCommand(sess, line); quit {
				return nil
			}
			continue
		}

		reply, err := sess.RunTurn(context.Background(), line)
		switch {
		case errors.Is(err, assistant.ErrIterationLimit):
			fmt.Println("\n[Stopped: the model kept requesting tools past the per-turn limit.]")
			if reply != "" {
				fmt.Println(reply)
			}
		case err != nil:
			fmt.Fprintln(os.Stderr, "Error:", err)
		default:
			fmt.Println("\n" + reply)
		}
	}
}

func consumeEvents(events <-chan assistant.SessionEvent) {
	for ev := range events {
		switch ev.Kind {
		case assistant.EventToolProposed:
			fmt.Printf("\n[tool] %v\n", ev.Data["tool"])
		case assistant.EventToolResult:
			if isErr, _ := ev.Data["is_error"].(bool); isErr {
				fmt.Printf("[tool] %v failed\n", ev.Data["tool"])
			}
		case assistant.EventWarning:
			fmt.Printf("[warning] %v\n", ev.Data)
		}
	}
}

// runSlashCommand handles REPL commands. It returns true when the session
// should end.
func runSlashCommand(sess *assistant.Session, line string) bool {
	fields := strings.Fields(line)
	cmd, args := fields[0], fields[1:]

	switch cmd {
	case "/exit", "/quit":
		return true

	case "/help":
		fmt.Println(`Commands:
  /add <path>      pin a file or directory as context
  /drop <path>     unpin a file
  /context         list pinned files
  /clear           clear the conversation (context and directive kept out)
  /model [name]    show or switch the model (alias: /setmodel)
  /workspace       show the workspace root
  /config          show the active configuration
  /save <name>     save the session
  /load <name>     load a saved session
  /exit            quit`)

	case "/add":
		if len(args) == 0 {
			fmt.Println("Usage: /add <path>")
			break
		}
		addContext(sess, args[0])

	case "/drop":
		if len(args) == 0 {
			fmt.Println("Usage: /drop <path>")
			break
		}
		if sess.Transcript().DropFileContext(args[0]) {
			fmt.Println("Dropped", args[0])
		} else {
			fmt.Println("Not pinned:", args[0])
		}

	case "/context":
		paths := sess.Transcript().FileContextPaths()
		if len(paths) == 0 {
			fmt.Println("No files pinned.")
			break
		}
		for _, p := range paths {
			fmt.Println(" ", p)
		}

	case "/clear":
		sess.Transcript().Clear()
		fmt.Println("Conversation cleared.")

	case "/model", "/setmodel":
		if len(args) == 0 {
			fmt.Println("Model:", sess.Model())
			break
		}
		if info := modelchannel.GetModelInfo(args[0]); info != nil {
			sess.SetModel(info.ID)
		} else {
			sess.SetModel(args[0])
		}
		fmt.Println("Model set to", sess.Model())

	case "/workspace":
		fmt.Println("Workspace:", sess.Workspace().Root())

	case "/config":
		cfg, err := assistant.LoadConfig()
		if err != nil {
			fmt.Println("Config unreadable:", err)
			break
		}
		fmt.Printf("Default model: %s\nMax iterations: %d\nAuto-approve reads: %v\n",
			cfg.DefaultModel, cfg.MaxIterations, cfg.AutoApproveReads)
		for name := range cfg.Profiles {
			fmt.Println("Profile:", name)
		}

	case "/save":
		if len(args) == 0 {
			fmt.Println("Usage: /save <name>")
			break
		}
		path, err := assistant.SessionPath(args[0])
		if err == nil {
			err = sess.Save(path)
		}
		if err != nil {
			fmt.Println("Save failed:", err)
		} else {
			fmt.Println("Saved to", path)
		}

	case "/load":
		if len(args) == 0 {
			fmt.Println("Usage: /load <name>")
			break
		}
		path, err := assistant.SessionPath(args[0])
		if err == nil {
			err = sess.Load(path)
		}
		if err != nil {
			fmt.Println("Load failed:", err)
		} else {
			fmt.Println("Loaded", path)
		}

	default:
		fmt.Println("Unknown command. Try /help.")
	}
	return false
}

func addContext(sess *assistant.Session, path string) {
	resolved, err := sess.Workspace().Resolve(path)
	if err != nil {
		fmt.Println("Error:", err)
		return
	}
	info, err := os.Stat(resolved)
	if err != nil {
		fmt.Println("Error:", err)
		return
	}

	if info.IsDir() {
		added, skipped, err := sess.Context().AddDirectory(path)
		if err != nil {
			fmt.Println("Error:", err)
			return
		}
		fmt.Printf("Pinned %d files.\n", len(added))
		for p, reason := range skipped {
			fmt.Printf("  skipped %s: %s\n", p, reason)
		}
		return
	}

	rel, err := sess.Context().AddFile(path)
	if err != nil {
		fmt.Println("Error:", err)
		return
	}
	fmt.Println("Pinned", rel)
}

// terminalPrompter collects confirmation decisions from stdin.
type terminalPrompter struct {
	reader *bufio.Reader
}

func (p *terminalPrompter) Review(calls []assistant.ProposedCall) (assistant.Decision, error) {
	fmt.Println("\nProposed tool calls:")
	for i, pc := range calls {
		marker := ""
		if pc.Sensitive {
			marker = "  [sensitive path]"
		}
		fmt.Printf("  %d. %s%s\n", i+1, pc.Summary, marker)
	}

	for {
		fmt.Print("Run these? [y]es / [n]o / [e]dit: ")
		line, err := p.reader.ReadString('\n')
		if err != nil {
			return assistant.Decision{}, err
		}

		switch strings.ToLower(strings.TrimSpace(line)) {
		case "y", "yes":
			return assistant.Decision{Verdict: assistant.VerdictAccepted}, nil
		case "n", "no":
			reason, err := p.readLine("Reason (optional): ")
			if err != nil {
				return assistant.Decision{}, err
			}
			return assistant.Decision{Verdict: assistant.VerdictRejected, Reason: reason}, nil
		case "e", "edit":
			return p.readEdit(len(calls))
		default:
			fmt.Println("Please answer y, n, or e.")
		}
	}
}

func (p *terminalPrompter) ConfirmWrite(path string) bool {
	for {
		fmt.Printf("%s is a sensitive system path. Write to it anyway? [y/N]: ", path)
		line, err := p.reader.ReadString('\n')
		if err != nil {
			return false
		}
		switch strings.ToLower(strings.TrimSpace(line)) {
		case "y", "yes":
			return true
		case "", "n", "no":
			return false
		default:
			fmt.Println("Please answer y or n.")
		}
	}
}

func (p *terminalPrompter) readEdit(batchSize int) (assistant.Decision, error) {
	numText, err := p.readLine(fmt.Sprintf("Which call (1-%d): ", batchSize))
	if err != nil {
		return assistant.Decision{}, err
	}
	num, err := strconv.Atoi(numText)
	if err != nil || num < 1 || num > batchSize {
		fmt.Println("Invalid call number; rejecting the batch.")
		return assistant.Decision{Verdict: assistant.VerdictRejected, Reason: "invalid edit selection"}, nil
	}

	field, err := p.readLine("Field name: ")
	if err != nil {
		return assistant.Decision{}, err
	}
	value, err := p.readLine("New value: ")
	if err != nil {
		return assistant.Decision{}, err
	}

	return assistant.Decision{
		Verdict:   assistant.VerdictEdited,
		EditIndex: num - 1,
		EditField: field,
		EditValue: value,
	}, nil
}

func (p *terminalPrompter) readLine(prompt string) (string, error) {
	fmt.Print(prompt)
	line, err := p.reader.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(line), nil
}
