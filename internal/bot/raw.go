package bot

import (
	"github.com/bwmarrin/discordgo"
	"github.com/tidwall/gjson"
)

// RawEvent peeks at every gateway dispatch frame, feeding the ingress
// counter. Detection itself runs off the typed handlers; this exists
// so operators can compare frames seen against events processed.
func (b *Bot) RawEvent(s *discordgo.Session, e *discordgo.Event) {
	t := e.Type
	if t == "" && len(e.RawData) > 0 {
		t = gjson.GetBytes(e.RawData, "t").String()
	}
	if t == "" {
		return
	}
	b.Metrics.GatewayFrames.WithLabelValues(t).Inc()
}
