package emotion

// Message IDs for the empathetic replies, resolved through i18n by the
// caller. Labels outside the reply-worthy set have no message.
const (
	MsgReplySad      = "reply_sad"
	MsgReplyAngry    = "reply_angry"
	MsgReplyPositive = "reply_positive"
)

// ReplyMessageID returns the i18n message id for a label's empathetic
// reply, or "" when the label does not produce one. Pure lookup, no
// side effects; the cooldown decision lives elsewhere.
func ReplyMessageID(label Label) string {
	switch label {
	case Sad:
		return MsgReplySad
	case Angry:
		return MsgReplyAngry
	case Positive:
		return MsgReplyPositive
	}
	return ""
}
