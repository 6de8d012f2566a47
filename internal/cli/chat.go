package cli

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/roomcast/roomcast/internal/signaling"
)

var (
	chatRoomID string
	chatSender string
	chatText   string
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Join a room, send one chat message and await its echo",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := dialServer(flagServer, flagToken)
		if err != nil {
			return err
		}
		defer client.close()

		if _, err := client.request(signaling.TypeJoinRoom, signaling.JoinRoomRequest{RoomID: chatRoomID}); err != nil {
			return err
		}

		msg := signaling.ChatMessage{RoomID: chatRoomID, Sender: chatSender, Text: chatText}
		if err := client.send(signaling.TypeChatMessage, msg); err != nil {
			return err
		}

		// The server echoes chat to the sender, so the broadcast can be
		// confirmed without a second connection.
		for {
			env, err := client.nextEvent(5 * time.Second)
			if err != nil {
				return fmt.Errorf("no chat echo received: %w", err)
			}
			if env.Type != signaling.TypeChatMessage {
				continue
			}
			var got signaling.ChatMessage
			if err := json.Unmarshal(env.Payload, &got); err != nil {
				return err
			}
			fmt.Printf("delivered to room %s: %s: %s\n", got.RoomID, got.Sender, got.Text)
			return nil
		}
	},
}

func init() {
	chatCmd.Flags().StringVarP(&chatRoomID, "room", "r", "", "room identifier")
	chatCmd.Flags().StringVar(&chatSender, "sender", "relayctl", "display name to send as")
	chatCmd.Flags().StringVar(&chatText, "text", "", "message text")
	chatCmd.MarkFlagRequired("room")
	chatCmd.MarkFlagRequired("text")
}
