// Package toolagent runs a conversational agent that lets a Claude model
// call tools.
//
// Tools come from two places: in-process functions registered with
// WithLocalTool (plus the built-in list_directory and read_file), and
// operations of external MCP services launched as child processes speaking
// JSON-RPC over stdio. Service operations are discovered once, cached, and
// exposed to the model as mcp_<service>_<operation>.
//
// # Basic Usage
//
//	agent, err := toolagent.New(ctx,
//	    toolagent.WithAPIKey(os.Getenv("ANTHROPIC_API_KEY")),
//	    toolagent.WithDefaultServices(),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	if err := agent.Submit(ctx, "What files are in this directory?"); err != nil {
//	    log.Fatal(err)
//	}
//
// Interactive sessions read from an InputReader until it is exhausted:
//
//	err = agent.Run(ctx, toolagent.NewLineReader(os.Stdin, os.Stdout, "You: "))
//
// # Local Tools
//
//	add := toolagent.NewTool("add", "Add two numbers",
//	    toolagent.SimpleSchema(map[string]string{"a": "float64", "b": "float64"}),
//	    func(ctx context.Context, in map[string]any) (string, error) {
//	        return fmt.Sprint(in["a"].(float64) + in["b"].(float64)), nil
//	    },
//	)
//
//	agent, err := toolagent.New(ctx, toolagent.WithLocalTool(add))
//
// # Logging
//
// For detailed operation tracking, use WithLogger:
//
//	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
//	agent, err := toolagent.New(ctx, toolagent.WithLogger(logger))
//
// # Error Handling
//
// Tool failures never abort a turn; they are returned to the model as error
// results. Submit returns typed errors for failures the caller must see:
//
//	if err := agent.Submit(ctx, prompt); err != nil {
//	    if epErr, ok := errors.AsType[*toolagent.EndpointError](err); ok {
//	        log.Fatalf("model endpoint failed with status %d", epErr.StatusCode)
//	    }
//	    if errors.Is(err, toolagent.ErrToolTurnLimit) {
//	        log.Print("model kept calling tools; turn stopped")
//	    }
//	}
package toolagent
