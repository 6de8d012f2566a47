package cli

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roomcast/roomcast/internal/signaling"
)

var capsCmd = &cobra.Command{
	Use:   "caps",
	Short: "Fetch the media engine's RTP capabilities",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := dialServer(flagServer, flagToken)
		if err != nil {
			return err
		}
		defer client.close()

		resp, err := client.request(signaling.TypeGetRtpCapabilities, nil)
		if err != nil {
			return err
		}

		var pretty bytes.Buffer
		if err := json.Indent(&pretty, resp.Payload, "", "  "); err != nil {
			fmt.Println(string(resp.Payload))
			return nil
		}
		fmt.Println(pretty.String())
		return nil
	},
}
