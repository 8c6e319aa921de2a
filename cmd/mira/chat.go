package main

import (
	"encoding/json"
	"strings"

	"github.com/spf13/cobra"

	"github.com/PabloGalante/mira-agent/internal/app/conversation"
	"github.com/PabloGalante/mira-agent/internal/domain"
)

type chatOutput struct {
	SessionID         string                  `json:"session_id"`
	Response          string                  `json:"response"`
	SuggestedGoalText *string                 `json:"suggestedGoalText,omitempty"`
	ReframingData     *domain.ReframingResult `json:"reframingData,omitempty"`
	DetectedIssueTags []string                `json:"detectedIssueTags"`
}

func newChatCmd(a *app) *cobra.Command {
	var (
		mode      string
		userID    string
		sessionID string
	)

	cmd := &cobra.Command{
		Use:   "chat <message>",
		Short: "Send one message to Mira and print the structured reply",
		Long: `Send one message to Mira and print the reply as JSON.
Without --session a new session is started. With a persistent storage
backend, pass the printed session_id back to continue the conversation.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			svc, closeStores, err := a.buildService(ctx)
			if err != nil {
				return err
			}
			defer closeStores()

			sid := domain.SessionID(sessionID)
			if sid == "" {
				started, err := svc.StartSession(ctx, conversation.StartSessionInput{
					UserID: domain.UserID(userID),
					Mode:   domain.Mode(mode),
				})
				if err != nil {
					return err
				}
				sid = started.Session.ID
			}

			out, err := svc.SendMessage(ctx, conversation.SendMessageInput{
				SessionID: sid,
				UserID:    domain.UserID(userID),
				Text:      strings.Join(args, " "),
				Mode:      domain.Mode(mode),
			})
			if err != nil {
				return err
			}

			tags := out.DetectedIssueTags
			if tags == nil {
				tags = []string{}
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(chatOutput{
				SessionID:         string(sid),
				Response:          out.AgentMessage.Text,
				SuggestedGoalText: out.SuggestedGoalText,
				ReframingData:     out.Reframing,
				DetectedIssueTags: tags,
			})
		},
	}

	cmd.Flags().StringVarP(&mode, "mode", "m", "", "Therapist, Coach or Friend (default Therapist for new sessions)")
	cmd.Flags().StringVarP(&userID, "user", "u", "local-user", "user id")
	cmd.Flags().StringVarP(&sessionID, "session", "s", "", "continue an existing session")
	return cmd
}
