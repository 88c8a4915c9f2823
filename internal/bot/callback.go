package bot

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrMalformedCallback is returned for button payloads that do not decode into a Command.
var ErrMalformedCallback = errors.New("malformed callback")

// maxCallbackLen is the platform limit for button payloads.
const maxCallbackLen = 64

type Action string

const (
	ActNoop Action = "x"

	ActMainMenu     Action = "m"
	ActNewOrder     Action = "no"
	ActConfirmField Action = "fc" // Value: field
	ActReenterField Action = "fr" // Value: field
	ActPayment      Action = "pm" // Value: payment method
	ActSkipNotes    Action = "sk"
	ActSubmitOrder  Action = "os"
	ActCancelOrder  Action = "ox"
	ActMyOrders     Action = "my" // Page, Flag: active only
	ActHelp         Action = "h"
	ActSettings     Action = "st"
	ActLanguageMenu Action = "lg"
	ActSetLanguage  Action = "ls" // Value: language code
	ActNotify       Action = "nt"

	ActAdminMenu      Action = "am"
	ActAdminList      Action = "al" // Mode, Page
	ActAdminView      Action = "av" // ID, Mode, Page
	ActAdminStatus    Action = "as" // ID, Value: status, Mode, Page
	ActAdminEdit      Action = "ae" // ID, Mode, Page
	ActAdminDelete    Action = "ad" // ID, Mode, Page
	ActAdminDeleteYes Action = "ay" // ID
	ActAdminDeleteNo  Action = "an" // ID, Mode, Page
	ActAdminSearch    Action = "aq"
	ActAdminExport    Action = "ax" // Mode
	ActAdminExportOne Action = "ao" // ID, Mode, Page
	ActAdminStats     Action = "at"

	ActHelpMenu     Action = "hm"
	ActHelpAdd      Action = "ha"
	ActHelpSave     Action = "hn" // Flag: activate now
	ActHelpView     Action = "hv" // ID
	ActHelpActivate Action = "hs" // ID
	ActHelpDelete   Action = "hd" // ID
)

// ListMode selects the admin list context.
type ListMode string

const (
	ModeAll    ListMode = "a"
	ModeSearch ListMode = "s"
)

// Command is a decoded button payload. Which fields are meaningful depends on Action.
type Command struct {
	Action Action
	ID     int64
	Page   int
	Mode   ListMode
	Value  string
	Flag   bool
}

type argKind int

const (
	argID argKind = iota
	argPage
	argMode
	argValue
	argFlag
)

var callbackSchema = map[Action][]argKind{
	ActNoop:         nil,
	ActMainMenu:     nil,
	ActNewOrder:     nil,
	ActConfirmField: {argValue},
	ActReenterField: {argValue},
	ActPayment:      {argValue},
	ActSkipNotes:    nil,
	ActSubmitOrder:  nil,
	ActCancelOrder:  nil,
	ActMyOrders:     {argPage, argFlag},
	ActHelp:         nil,
	ActSettings:     nil,
	ActLanguageMenu: nil,
	ActSetLanguage:  {argValue},
	ActNotify:       nil,

	ActAdminMenu:      nil,
	ActAdminList:      {argMode, argPage},
	ActAdminView:      {argID, argMode, argPage},
	ActAdminStatus:    {argID, argValue, argMode, argPage},
	ActAdminEdit:      {argID, argMode, argPage},
	ActAdminDelete:    {argID, argMode, argPage},
	ActAdminDeleteYes: {argID},
	ActAdminDeleteNo:  {argID, argMode, argPage},
	ActAdminSearch:    nil,
	ActAdminExport:    {argMode},
	ActAdminExportOne: {argID, argMode, argPage},
	ActAdminStats:     nil,

	ActHelpMenu:     nil,
	ActHelpAdd:      nil,
	ActHelpSave:     {argFlag},
	ActHelpView:     {argID},
	ActHelpActivate: {argID},
	ActHelpDelete:   {argID},
}

// EncodeCallback serializes c as "action:arg:arg...".
func EncodeCallback(c Command) (string, error) {
	schema, ok := callbackSchema[c.Action]
	if !ok {
		return "", fmt.Errorf("unknown action %q", c.Action)
	}

	parts := make([]string, 0, len(schema)+1)
	parts = append(parts, string(c.Action))
	for _, kind := range schema {
		switch kind {
		case argID:
			parts = append(parts, strconv.FormatInt(c.ID, 10))
		case argPage:
			parts = append(parts, strconv.Itoa(c.Page))
		case argMode:
			parts = append(parts, string(c.Mode))
		case argValue:
			if c.Value == "" || strings.Contains(c.Value, ":") {
				return "", fmt.Errorf("invalid value %q for action %q", c.Value, c.Action)
			}
			parts = append(parts, c.Value)
		case argFlag:
			if c.Flag {
				parts = append(parts, "1")
			} else {
				parts = append(parts, "0")
			}
		}
	}

	data := strings.Join(parts, ":")
	if len(data) > maxCallbackLen {
		return "", fmt.Errorf("callback %q exceeds %d bytes", data, maxCallbackLen)
	}
	return data, nil
}

// DecodeCallback parses a payload produced by EncodeCallback.
func DecodeCallback(data string) (Command, error) {
	if data == "" || len(data) > maxCallbackLen {
		return Command{}, ErrMalformedCallback
	}

	parts := strings.Split(data, ":")
	c := Command{Action: Action(parts[0])}

	schema, ok := callbackSchema[c.Action]
	if !ok || len(parts)-1 != len(schema) {
		return Command{}, fmt.Errorf("%w: %q", ErrMalformedCallback, data)
	}

	for i, kind := range schema {
		arg := parts[i+1]
		switch kind {
		case argID:
			id, err := strconv.ParseInt(arg, 10, 64)
			if err != nil || id <= 0 {
				return Command{}, fmt.Errorf("%w: bad id in %q", ErrMalformedCallback, data)
			}
			c.ID = id
		case argPage:
			page, err := strconv.Atoi(arg)
			if err != nil || page < 1 {
				return Command{}, fmt.Errorf("%w: bad page in %q", ErrMalformedCallback, data)
			}
			c.Page = page
		case argMode:
			mode := ListMode(arg)
			if mode != ModeAll && mode != ModeSearch {
				return Command{}, fmt.Errorf("%w: bad mode in %q", ErrMalformedCallback, data)
			}
			c.Mode = mode
		case argValue:
			if arg == "" {
				return Command{}, fmt.Errorf("%w: empty value in %q", ErrMalformedCallback, data)
			}
			c.Value = arg
		case argFlag:
			switch arg {
			case "1":
				c.Flag = true
			case "0":
			default:
				return Command{}, fmt.Errorf("%w: bad flag in %q", ErrMalformedCallback, data)
			}
		}
	}

	return c, nil
}

// cb encodes payloads built from trusted values; an encoding failure degrades to a no-op button.
func cb(c Command) string {
	data, err := EncodeCallback(c)
	if err != nil {
		return string(ActNoop)
	}
	return data
}
