package main

import (
	"encoding/json"
	"strings"

	"github.com/spf13/cobra"

	"github.com/PabloGalante/mira-agent/internal/app/conversation"
	"github.com/PabloGalante/mira-agent/internal/domain"
)

func newReframeCmd(a *app) *cobra.Command {
	var (
		thoughtContext string
		save           bool
		userID         string
	)

	cmd := &cobra.Command{
		Use:   "reframe <thought>",
		Short: "Reframe a negative thought and print the result as JSON",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			svc, closeStores, err := a.buildService(ctx)
			if err != nil {
				return err
			}
			defer closeStores()

			out, err := svc.ReframeThought(ctx, conversation.ReframeInput{
				UserID:  domain.UserID(userID),
				Thought: strings.Join(args, " "),
				Context: thoughtContext,
				Save:    save,
			})
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(out.Result)
		},
	}

	cmd.Flags().StringVarP(&thoughtContext, "context", "c", "", "optional conversation context")
	cmd.Flags().BoolVar(&save, "save", false, "save the reframing to the user's journal")
	cmd.Flags().StringVarP(&userID, "user", "u", "local-user", "user id (used with --save)")
	return cmd
}
