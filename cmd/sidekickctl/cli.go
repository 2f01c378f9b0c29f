package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/1kken/SideKickCX/internal/auth"
	"github.com/1kken/SideKickCX/internal/bootstrap"
	"github.com/1kken/SideKickCX/internal/config"
	"github.com/1kken/SideKickCX/internal/db"
	"github.com/1kken/SideKickCX/internal/logging"
	"github.com/1kken/SideKickCX/internal/support"
)

type app struct {
	envFile string
	cfg     config.Config
}

func (a *app) open() (*gorm.DB, error) {
	gdb, err := db.Open(a.cfg.DBDriver, a.cfg.DBDSN)
	if err != nil {
		return nil, err
	}
	if err := db.Migrate(gdb); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return gdb, nil
}

func buildRootCommand() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "sidekickctl",
		Short: "Operate a SideKickCX deployment",
		Long: strings.TrimSpace(`sidekickctl manages the SideKickCX database and talks to the
configured assistant without going through the HTTP API.

Configuration is read from the same .env file and environment variables as the server.`),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadFile(a.envFile)
			if err != nil {
				return err
			}
			logging.SetupTo(cmd.ErrOrStderr(), cfg.LogLevel, cfg.LogFormat)
			a.cfg = cfg
			return nil
		},
	}
	root.CompletionOptions.DisableDefaultCmd = true
	root.PersistentFlags().StringVar(&a.envFile, "env-file", ".env", "Path to the dotenv file")

	root.AddCommand(newMigrateCommand(a))
	root.AddCommand(newSeedUsersCommand(a))
	root.AddCommand(newClassifyCommand())
	root.AddCommand(newUploadCommand(a))
	root.AddCommand(newChatCommand(a))

	return root
}

func newMigrateCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "migrate",
		Short:   "Create or update the database schema",
		Example: "  sidekickctl migrate",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := a.open(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "schema is up to date (%s)\n", a.cfg.DBDriver)
			return nil
		},
	}
}

func newSeedUsersCommand(a *app) *cobra.Command {
	var name, email, password, role string

	cmd := &cobra.Command{
		Use:   "seed-users",
		Short: "Create or reset a login account",
		Example: strings.Join([]string{
			"  sidekickctl seed-users --email agent@example.com --password s3cret --role agent",
			"  sidekickctl seed-users --email jane@example.com --password s3cret --name Jane",
		}, "\n"),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			r := auth.Role(strings.ToLower(role))
			if !r.Valid() {
				return fmt.Errorf("role must be customer or agent, got %q", role)
			}
			if strings.TrimSpace(email) == "" || password == "" {
				return errors.New("--email and --password are required")
			}
			gdb, err := a.open()
			if err != nil {
				return err
			}
			u, err := auth.NewRepo(gdb).Upsert(cmd.Context(), name, email, password, r)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\n", u.ID, u.Email, u.Role)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Display name")
	cmd.Flags().StringVar(&email, "email", "", "Login email")
	cmd.Flags().StringVar(&password, "password", "", "Login password")
	cmd.Flags().StringVar(&role, "role", string(auth.RoleCustomer), "customer or agent")
	return cmd
}

func newClassifyCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "classify <message>",
		Short:   "Print the priority a message would get",
		Example: "  sidekickctl classify \"my order arrived broken\"",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintln(cmd.OutOrStdout(), support.Classify(strings.Join(args, " ")))
			return nil
		},
	}
}

func newUploadCommand(a *app) *cobra.Command {
	var assistantID string

	cmd := &cobra.Command{
		Use:     "upload <file>",
		Short:   "Add a document to the Pinecone assistant's knowledge files",
		Example: "  sidekickctl upload ./docs/returns-policy.pdf",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pc := bootstrap.Pinecone(a.cfg)
			if pc == nil {
				return errors.New("PINECONE_API_KEY is not set")
			}
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			out, err := pc.UploadFile(cmd.Context(), assistantID, filepath.Base(args[0]), f)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(out))
			return nil
		},
	}

	cmd.Flags().StringVar(&assistantID, "assistant", "", "Assistant name (defaults to PINECONE_ASSISTANT_ID)")
	return cmd
}

func newChatCommand(a *app) *cobra.Command {
	var userID, ticketID string
	var stream bool

	cmd := &cobra.Command{
		Use:   "chat <message>",
		Short: "Send one customer message through the support pipeline",
		Example: strings.Join([]string{
			"  sidekickctl chat --user u-42 \"where is my order?\"",
			"  sidekickctl chat --user u-42 --stream \"the app keeps crashing\"",
		}, "\n"),
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			gdb, err := a.open()
			if err != nil {
				return err
			}
			svc, closer, err := bootstrap.Support(cmd.Context(), a.cfg, gdb, nil)
			if err != nil {
				return err
			}
			defer closer()

			req := support.Request{UserID: userID, TicketID: ticketID, Message: strings.Join(args, " ")}
			return runChat(cmd, svc, req, stream)
		},
	}

	cmd.Flags().StringVarP(&userID, "user", "u", "cli", "Customer id")
	cmd.Flags().StringVar(&ticketID, "ticket", "", "Route the message to the agent handling this ticket")
	cmd.Flags().BoolVar(&stream, "stream", false, "Print the answer as it is generated")
	return cmd
}

func runChat(cmd *cobra.Command, svc *support.Service, req support.Request, stream bool) error {
	out := cmd.OutOrStdout()

	var (
		reply *support.Reply
		err   error
	)
	if stream {
		reply, err = svc.ReplyStream(cmd.Context(), req, func(d string) error {
			_, werr := fmt.Fprint(out, d)
			return werr
		})
		if err == nil && !reply.Handoff {
			fmt.Fprintln(out)
		}
	} else {
		reply, err = svc.Reply(cmd.Context(), req)
		if err == nil && !reply.Handoff {
			fmt.Fprintln(out, reply.Response)
		}
	}
	if err != nil {
		return err
	}

	if reply.Handoff {
		fmt.Fprintf(out, "forwarded to the agent on ticket %s\n", reply.TicketID)
		return nil
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "priority=%s repetitions=%d suggest_ticket=%t\n",
		reply.Priority, reply.RepetitionCount, reply.SuggestTicket)
	return nil
}
