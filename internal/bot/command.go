package bot

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/tartampluch/go-birthday-bot/internal/config"
)

// Kind tags an admin action carried in a button payload.
type Kind string

const (
	KindInitiate   Kind = "initiate"
	KindSubject    Kind = "subject" // + participant id
	KindSend       Kind = "send_announcement"
	KindStatus     Kind = "status"
	KindThank      Kind = "thank"
	KindThankPick  Kind = "thank_pick" // + participant id
	KindThankYes   Kind = "thank_yes"  // + participant id
	KindThankNo    Kind = "thank_no"   // + participant id
	KindRemind     Kind = "remind"
	KindRemindSend Kind = "remind_send"
	KindEnd        Kind = "end"
	KindEndYes     Kind = "end_yes"
	KindEndNo      Kind = "end_no"
	KindBack       Kind = "back"
	KindNoop       Kind = "noop"
)

const argSeparator = ":"

// withArg lists the kinds that carry a participant id.
var withArg = map[Kind]bool{
	KindSubject:   true,
	KindThankPick: true,
	KindThankYes:  true,
	KindThankNo:   true,
}

var bare = map[Kind]bool{
	KindInitiate:   true,
	KindSend:       true,
	KindStatus:     true,
	KindThank:      true,
	KindRemind:     true,
	KindRemindSend: true,
	KindEnd:        true,
	KindEndYes:     true,
	KindEndNo:      true,
	KindBack:       true,
	KindNoop:       true,
}

var errMalformed = errors.New(config.ErrDecodeCommand)

// Command is a decoded button action.
type Command struct {
	Kind Kind
	ID   int64
}

// Encode renders the command as a button payload, e.g. "thank_yes:222".
func (c Command) Encode() string {
	if withArg[c.Kind] {
		return string(c.Kind) + argSeparator + strconv.FormatInt(c.ID, 10)
	}
	return string(c.Kind)
}

func (c Command) String() string {
	return c.Encode()
}

// DecodeCommand parses a button payload produced by Encode.
func DecodeCommand(data string) (Command, error) {
	name, arg, hasArg := strings.Cut(data, argSeparator)
	kind := Kind(name)

	switch {
	case hasArg && withArg[kind]:
		id, err := strconv.ParseInt(arg, 10, 64)
		if err != nil {
			return Command{}, fmt.Errorf("%w: %q: %w", errMalformed, data, err)
		}
		return Command{Kind: kind, ID: id}, nil
	case !hasArg && bare[kind]:
		return Command{Kind: kind}, nil
	default:
		return Command{}, fmt.Errorf("%w: %q", errMalformed, data)
	}
}
