// Package protocol defines the line-oriented text protocol spoken over the
// counter daemon's unix domain socket.
//
// Every command is a single newline-terminated ASCII line, and every
// response is a single newline-terminated ASCII line. The grammar is
// deliberately forgiving about numbers: an integer argument is parsed as
// the longest optionally-signed decimal prefix, and input with no such
// prefix parses as zero.
package protocol

import "fmt"

const (
	// CmdGetCounter requests the current counter value.
	CmdGetCounter = "get_counter"
	// CmdGetCounterAndTerminate requests the current counter value and
	// asks the serving process to exit once the response is flushed.
	// This is the command the bootstrap client sends to a predecessor
	// during a state hand-off.
	CmdGetCounterAndTerminate = "get_counter_and_terminate"
	// CmdSetCounterPrefix introduces a counter overwrite; the remainder
	// of the line is the new value.
	CmdSetCounterPrefix = "set_counter "

	// InvalidCommandResponse is sent for any line the grammar does not
	// recognize. The connection stays open afterwards.
	InvalidCommandResponse = "Invalid command\n"

	// MaxCommandLen bounds a single read. The grammar guarantees every
	// valid command fits in one buffer of this size, so a command is
	// never reassembled across reads.
	MaxCommandLen = 127
)

// Kind identifies which command a line matched.
type Kind int

const (
	// KindInvalid marks a line the grammar does not recognize.
	KindInvalid Kind = iota
	// KindGetCounter is the get_counter command.
	KindGetCounter
	// KindGetCounterAndTerminate is the get_counter_and_terminate command.
	KindGetCounterAndTerminate
	// KindSetCounter is the set_counter command.
	KindSetCounter
)

func (k Kind) String() string {
	switch k {
	case KindGetCounter:
		return CmdGetCounter
	case KindGetCounterAndTerminate:
		return CmdGetCounterAndTerminate
	case KindSetCounter:
		return "set_counter"
	default:
		return "invalid"
	}
}

// Command is one parsed request line.
type Command struct {
	Kind Kind
	// Value carries the argument of a set_counter command.
	Value int64
}

// TrimLine truncates buf at the first newline; the newline itself is
// discarded. A buffer without a newline is used whole.
func TrimLine(buf []byte) string {
	for i, b := range buf {
		if b == '\n' {
			return string(buf[:i])
		}
	}
	return string(buf)
}

// ParseCommand matches one line against the grammar. Matching is exact and
// case sensitive; there is no whitespace tolerance beyond what the commands
// themselves contain.
func ParseCommand(line string) Command {
	switch {
	case line == CmdGetCounter:
		return Command{Kind: KindGetCounter}
	case line == CmdGetCounterAndTerminate:
		return Command{Kind: KindGetCounterAndTerminate}
	case len(line) >= len(CmdSetCounterPrefix) && line[:len(CmdSetCounterPrefix)] == CmdSetCounterPrefix:
		return Command{
			Kind:  KindSetCounter,
			Value: ParseLeadingInt(line[len(CmdSetCounterPrefix):]),
		}
	default:
		return Command{Kind: KindInvalid}
	}
}

// ParseLeadingInt parses the longest optionally-signed base-10 integer
// prefix of s. Input with no leading integer parses as zero; trailing
// garbage after the digits is ignored.
func ParseLeadingInt(s string) int64 {
	i := 0
	negative := false
	if i < len(s) && (s[i] == '-' || s[i] == '+') {
		negative = s[i] == '-'
		i++
	}

	var v int64
	seen := false
	for ; i < len(s) && s[i] >= '0' && s[i] <= '9'; i++ {
		v = v*10 + int64(s[i]-'0')
		seen = true
	}
	if !seen {
		return 0
	}
	if negative {
		return -v
	}
	return v
}

// CounterResponse renders the reply to get_counter and
// get_counter_and_terminate.
func CounterResponse(v int64) string {
	return fmt.Sprintf("%d\n", v)
}

// PreviousValueResponse renders the reply to set_counter, carrying the
// value the counter held before the overwrite.
func PreviousValueResponse(old int64) string {
	return fmt.Sprintf("previous value %d\n", old)
}
