// SPDX-License-Identifier: Apache-2.0

package editor

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// UnknownCommandError is returned by DecodeCommand for a type name outside the
// command set.
type UnknownCommandError struct {
	Type string
}

func (e *UnknownCommandError) Error() string {
	return fmt.Sprintf("unknown command type %q", e.Type)
}

type decoder func(json.RawMessage) (Command, error)

func decodeAs[T Command](raw json.RawMessage) (Command, error) {
	var c T
	if err := json.Unmarshal(raw, &c); err != nil {
		return nil, err
	}
	return c, nil
}

// commandTypes maps the wire name of each command to its decoder.
var commandTypes = map[string]decoder{
	"setDocument":           decodeAs[SetDocument],
	"setTab":                decodeAs[SetTab],
	"updateMetadata":        decodeAs[UpdateMetadata],
	"updateSpec":            decodeAs[UpdateSpec],
	"addParameterStep":      decodeAs[AddParameterStep],
	"updateParameterStep":   decodeAs[UpdateParameterStep],
	"deleteParameterStep":   decodeAs[DeleteParameterStep],
	"reorderParameterSteps": decodeAs[ReorderParameterSteps],
	"selectParameterStep":   decodeAs[SelectParameterStep],
	"addParameterField":     decodeAs[AddParameterField],
	"updateParameterField":  decodeAs[UpdateParameterField],
	"deleteParameterField":  decodeAs[DeleteParameterField],
	"renameParameterField":  decodeAs[RenameParameterField],
	"selectField":           decodeAs[SelectField],
	"toggleRequiredField":   decodeAs[ToggleRequiredField],
	"addStep":               decodeAs[AddStep],
	"updateStep":            decodeAs[UpdateStep],
	"deleteStep":            decodeAs[DeleteStep],
	"reorderSteps":          decodeAs[ReorderSteps],
	"selectStep":            decodeAs[SelectStep],
	"addOutputLink":         decodeAs[AddOutputLink],
	"updateOutputLink":      decodeAs[UpdateOutputLink],
	"deleteOutputLink":      decodeAs[DeleteOutputLink],
	"setLoadingRepo":        decodeAs[SetLoadingRepo],
	"setRepoError":          decodeAs[SetRepoError],
	"markClean":             decodeAs[MarkClean],
}

// DecodeCommand reads one command object. The "type" member names the
// command and the remaining members are its fields, e.g.
//
//	{"type": "renameParameterField", "stepId": "p1", "oldKey": "a", "newKey": "b"}
func DecodeCommand(data []byte) (Command, error) {
	var head struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return nil, fmt.Errorf("invalid command: %w", err)
	}
	if head.Type == "" {
		return nil, fmt.Errorf("invalid command: missing type")
	}
	dec, ok := commandTypes[head.Type]
	if !ok {
		return nil, &UnknownCommandError{Type: head.Type}
	}
	cmd, err := dec(data)
	if err != nil {
		return nil, fmt.Errorf("invalid %s command: %w", head.Type, err)
	}
	return cmd, nil
}

// DecodeCommands reads a JSON array of commands, or a single command
// object. The first bad entry fails the whole batch.
func DecodeCommands(data []byte) ([]Command, error) {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '{' {
		cmd, err := DecodeCommand(data)
		if err != nil {
			return nil, err
		}
		return []Command{cmd}, nil
	}

	var raws []json.RawMessage
	if err := json.Unmarshal(data, &raws); err != nil {
		return nil, fmt.Errorf("invalid command list: %w", err)
	}
	cmds := make([]Command, 0, len(raws))
	for i, raw := range raws {
		cmd, err := DecodeCommand(raw)
		if err != nil {
			return nil, fmt.Errorf("command %d: %w", i, err)
		}
		cmds = append(cmds, cmd)
	}
	return cmds, nil
}
