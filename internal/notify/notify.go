// Package notify sends provisioning status notifications via Shoutrrr URLs.
package notify

import (
	"fmt"

	"github.com/containrrr/shoutrrr"
	"github.com/containrrr/shoutrrr/pkg/types"
)

// Send delivers a message to the configured notification URL.
func Send(url, message string) error {
	sender, err := shoutrrr.CreateSender(url)
	if err != nil {
		return fmt.Errorf("creating notification sender: %w", err)
	}

	params := &types.Params{}
	for _, sendErr := range sender.Send(message, params) {
		if sendErr != nil {
			return fmt.Errorf("sending notification: %w", sendErr)
		}
	}
	return nil
}
