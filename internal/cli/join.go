package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roomcast/roomcast/internal/signaling"
)

var joinRoomID string

var joinCmd = &cobra.Command{
	Use:   "join",
	Short: "Join a room and print every server push until interrupted",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := dialServer(flagServer, flagToken)
		if err != nil {
			return err
		}
		defer client.close()
		client.onPush = printEvent

		resp, err := client.request(signaling.TypeJoinRoom, signaling.JoinRoomRequest{RoomID: joinRoomID})
		if err != nil {
			return err
		}

		var joined signaling.JoinRoomResponse
		if err := json.Unmarshal(resp.Payload, &joined); err != nil {
			return err
		}
		fmt.Printf("joined room %s as peer %s\n", joinRoomID, joined.PeerID)

		for {
			env, err := client.nextEvent(0)
			if err != nil {
				return fmt.Errorf("connection closed: %w", err)
			}
			printEvent(env)
		}
	},
}

func init() {
	joinCmd.Flags().StringVarP(&joinRoomID, "room", "r", "", "room identifier to join")
	joinCmd.MarkFlagRequired("room")
}
