// Package validator checks a dialog set as a whole: every link resolves and
// every dialog can be reached.
package validator

import (
	"fmt"
	"strings"

	"github.com/aretw0/folio/pkg/domain"
)

// ValidateDialogs crawls the dialog set from the entry points and reports
// broken links, dialogs nothing can reach, and triggers shadowed by an earlier
// dialog. Dialogs with triggers are entry points too, as are the default and
// fallback dialogs; entries adds the ids reached another way, for example by
// middleware.
func ValidateDialogs(dialogs []domain.DialogInfo, entries ...string) error {
	byID := make(map[string]domain.DialogInfo, len(dialogs))
	for _, d := range dialogs {
		byID[domain.NormalizeDialogID(d.ID)] = d
	}

	var errors []string

	queue := []string{domain.DefaultDialogID, domain.FallbackDialogID}
	for _, id := range entries {
		queue = append(queue, domain.NormalizeDialogID(id))
	}

	owner := make(map[string]string)
	for _, d := range dialogs {
		for _, trig := range d.Triggers {
			if first, ok := owner[trig]; ok {
				errors = append(errors, fmt.Sprintf("Trigger '%s' of '%s' is shadowed by '%s'", trig, d.ID, first))
				continue
			}
			owner[trig] = d.ID
		}
		if len(d.Triggers) > 0 {
			queue = append(queue, domain.NormalizeDialogID(d.ID))
		}
	}

	visited := make(map[string]bool)
	for len(queue) > 0 {
		currentID := queue[0]
		queue = queue[1:]

		if visited[currentID] {
			continue
		}
		visited[currentID] = true

		d, ok := byID[currentID]
		if !ok {
			errors = append(errors, fmt.Sprintf("Missing dialog: '%s'", currentID))
			continue
		}
		for _, link := range d.Links {
			target := domain.NormalizeDialogID(link)
			if !visited[target] {
				queue = append(queue, target)
			}
		}
	}

	for _, d := range dialogs {
		if !visited[domain.NormalizeDialogID(d.ID)] {
			errors = append(errors, fmt.Sprintf("Unreachable dialog: '%s'", d.ID))
		}
	}

	if len(errors) > 0 {
		return fmt.Errorf("found %d errors:\n- %s", len(errors), strings.Join(errors, "\n- "))
	}
	return nil
}
