package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/fesexport/backend/model"
	"github.com/spf13/cobra"
)

func newProgressCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "progress <draft.json>",
		Short: "Print the progress view of a draft exported as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			p, err := draftProgress(data, time.Now)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(p)
		},
	}
}

// draftProgress evaluates a draft record offline. Landings flagged by the
// reference service are not consulted.
func draftProgress(data []byte, now func() time.Time) (*model.Progress, error) {
	var d model.Draft
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("parse draft: %w", err)
	}
	if d.DocumentType == "" {
		t, err := model.DocumentTypeFromNumber(d.DocumentNumber)
		if err != nil {
			return nil, err
		}
		d.DocumentType = t
	}
	rule, ok := progressRules(nil, now)[d.DocumentType]
	if !ok {
		return nil, fmt.Errorf("%w: %s", model.ErrUnknownDocumentType, d.DocumentType)
	}
	return rule(context.Background(), &d)
}
