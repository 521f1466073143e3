package cli

import (
	"context"
	"strings"
	"sync/atomic"

	"github.com/spf13/cobra"

	"github.com/mrz1836/swapdesk/internal/backend"
	"github.com/mrz1836/swapdesk/internal/intent"
	"github.com/mrz1836/swapdesk/internal/output"
	"github.com/mrz1836/swapdesk/internal/pipeline"
	"github.com/mrz1836/swapdesk/internal/state"
	"github.com/mrz1836/swapdesk/internal/stream"
	deskerr "github.com/mrz1836/swapdesk/pkg/errors"
)

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level flag variables
var (
	// chatYes submits proposed transactions without asking.
	chatYes bool
	// chatNoWait returns once a proposed transaction is submitted.
	chatNoWait bool
)

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var chatCmd = &cobra.Command{
	Use:   "chat <message>",
	Short: "Ask the swap assistant",
	Long: `Send a message to the swap assistant and stream its reply.

When the reply proposes a transaction you are asked whether to submit it.
What you do with the proposal is reported back to the assistant so it can
follow up. The session is ended if the wallet disconnects or drops the
account while the command runs.`,
	Example: `  swapdesk chat "swap 10 USDC for ETH"
  swapdesk chat --yes "send 0.01 ETH to 0x742d35Cc6634C0532925a3b844Bc9e7595f8b2E0"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runChat,
}

//nolint:gochecknoinits // Cobra CLI pattern requires init for command registration
func init() {
	chatCmd.GroupID = groupTrading
	rootCmd.AddCommand(chatCmd)
	chatCmd.Flags().BoolVarP(&chatYes, "yes", "y", false, "submit proposed transactions without asking")
	chatCmd.Flags().BoolVar(&chatNoWait, "no-wait", false, "return once a proposed transaction is submitted")
}

// chatReply is the JSON shape of a finished chat turn.
type chatReply struct {
	Message      string             `json:"message"`
	MessageID    int64              `json:"messageId,omitempty"`
	Transactions []*intent.Intent   `json:"transactions,omitempty"`
	Submissions  []*pipeline.Result `json:"submissions,omitempty"`
}

func runChat(cmd *cobra.Command, args []string) error {
	cc := GetCmdContext(cmd)

	s, err := currentSession(cc)
	if err != nil {
		return err
	}

	if unwatch, watchErr := cc.Auth.Watch(); watchErr == nil {
		defer unwatch()
	} else {
		cc.Log.Debug("not watching wallet events: %v", watchErr)
	}

	// A wallet event can end the session while the reply streams.
	var ended atomic.Bool
	unwatchState := cc.State.Watch(func(c state.Change) {
		if c == state.ChangeSession && !cc.State.LoggedIn() {
			ended.Store(true)
		}
	})
	defer unwatchState()

	req := backend.ChatRequest{
		WalletAddress: s.Address,
		Chain:         cc.Networks.Active().APIID,
		Input:         strings.Join(args, " "),
	}

	reply, err := streamReply(cmd, cc, req)
	if err != nil {
		return err
	}

	var submitErr error
	for _, in := range reply.Transactions {
		if ended.Load() {
			submitErr = deskerr.WithSuggestion(deskerr.ErrNotLoggedIn, "Run 'swapdesk login' to reconnect your wallet")
			break
		}
		res, err := proposeIntent(cmd, cc, reply.MessageID, in)
		if res != nil {
			reply.Submissions = append(reply.Submissions, res)
		}
		if err != nil {
			submitErr = err
			break
		}
	}

	if cc.Fmt.Format() == output.FormatJSON {
		if err := writeJSON(cmd.OutOrStdout(), reply); err != nil {
			return err
		}
	}
	return submitErr
}

// streamReply consumes the chat stream. Text output is written as it
// arrives; JSON output is collected into the reply.
func streamReply(cmd *cobra.Command, cc *CommandContext, req backend.ChatRequest) (*chatReply, error) {
	w := cmd.OutOrStdout()
	text := !cc.Fmt.IsJSON()
	reply := &chatReply{}
	var sb strings.Builder

	for ev, err := range cc.Chat.Process(baseContext(cmd), req) {
		if err != nil {
			if text && sb.Len() > 0 {
				outln(w)
			}
			return nil, err
		}
		switch e := ev.(type) {
		case stream.Content:
			sb.WriteString(e.Text)
			if text {
				out(w, "%s", e.Text)
			}
		case stream.Transaction:
			reply.Transactions = append(reply.Transactions, e.Intent)
		case stream.Tracking:
			reply.MessageID = e.MessageID
		}
	}

	if text && sb.Len() > 0 {
		outln(w)
	}
	reply.Message = sb.String()
	return reply, nil
}

// proposeIntent shows a proposed transaction, submits it when the user
// agrees, and reports the click and the outcome for messageID.
func proposeIntent(cmd *cobra.Command, cc *CommandContext, messageID int64, in *intent.Intent) (*pipeline.Result, error) {
	w := cmd.OutOrStdout()
	if !cc.Fmt.IsJSON() {
		outln(w)
		outln(w, "Proposed transaction:")
		if err := describeIntent(w, in); err != nil {
			return nil, err
		}
	}

	if !confirmAction(chatYes, "Submit this transaction?") {
		if !cc.Fmt.IsJSON() {
			outln(w, "Transaction canceled.")
		}
		return nil, nil
	}

	track(baseContext(cmd), cc, messageID, backend.Clicked())

	res, err := submitIntent(cmd, cc, in, !chatNoWait)
	track(baseContext(cmd), cc, messageID, backend.Outcome(err))

	if res != nil && res.Hash != "" && !cc.Fmt.IsJSON() {
		if printErr := printResult(cmd, cc.Fmt.Format(), res); printErr != nil {
			return res, printErr
		}
	}
	return res, err
}

// track reports user activity on a message. Failures are logged only.
func track(ctx context.Context, cc *CommandContext, messageID int64, data backend.TrackingData) {
	if messageID <= 0 {
		return
	}
	if _, err := cc.Tracking.Track(ctx, messageID, data); err != nil {
		cc.Log.With("message_id", messageID).Error("tracking failed: %v", err)
	}
}
