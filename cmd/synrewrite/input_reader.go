// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/AleutianAI/synrewrite/cmd/synrewrite/internal/prompt"
	"github.com/AleutianAI/synrewrite/pkg/ux"
)

// =============================================================================
// InputReader Interface
// =============================================================================

// InputReader abstracts menu input for the shell.
//
// # Description
//
// The shell reads menu choices and word arguments through an InputReader
// so tests can script a whole session. ReadLine returns the trimmed line,
// and io.EOF once input is exhausted.
type InputReader interface {
	ReadLine() (string, error)
}

// PromptingInputReader is implemented by readers that draw their own
// prompt. The shell checks for it to avoid printing the prompt twice:
//
//	if p, ok := reader.(PromptingInputReader); ok {
//	    p.SetPrompt(label)
//	} else {
//	    fmt.Fprint(out, label)
//	}
type PromptingInputReader interface {
	InputReader
	SetPrompt(prompt string)
}

// =============================================================================
// lineInputReader (piped input)
// =============================================================================

// lineInputReader reads menu input from the same prompt.Line that answers
// learning questions, so both share one buffered reader over stdin.
// Two independent buffers over one pipe would steal each other's lines.
type lineInputReader struct {
	line   *prompt.Line
	prompt string
}

func newLineInputReader(line *prompt.Line) *lineInputReader {
	return &lineInputReader{line: line}
}

// SetPrompt sets the label printed before the next read.
func (r *lineInputReader) SetPrompt(prompt string) {
	r.prompt = prompt
}

// ReadLine prints the prompt and reads one line.
func (r *lineInputReader) ReadLine() (string, error) {
	label := r.prompt
	r.prompt = ""
	return r.line.Ask(context.Background(), label)
}

// =============================================================================
// InteractiveInputReader Implementation (with history)
// =============================================================================

// InteractiveInputReader implements InputReader with history navigation.
//
// # Description
//
// Uses charmbracelet/bubbletea to provide:
//   - Up/down arrow history navigation
//   - Line editing (Ctrl+A, Ctrl+E, etc.)
//   - Ctrl+C clears the line, Ctrl+D ends input
//
// # Thread Safety
//
// Not thread-safe. Single reader per stdin.
//
// # Limitations
//
//   - History is in-memory only
type InteractiveInputReader struct {
	history    []string
	maxHistory int
	prompt     string
}

// inputModel is the bubbletea model for one line of input.
type inputModel struct {
	textInput    textinput.Model
	history      []string
	historyIndex int
	currentInput string // input being typed before history navigation
	done         bool
	cancelled    bool
}

// NewInteractiveInputReader creates an interactive reader keeping up to
// maxHistory entries.
func NewInteractiveInputReader(maxHistory int) *InteractiveInputReader {
	return &InteractiveInputReader{
		history:    make([]string, 0, maxHistory),
		maxHistory: maxHistory,
		prompt:     "> ",
	}
}

// SetPrompt sets the prompt drawn by the text input.
func (r *InteractiveInputReader) SetPrompt(prompt string) {
	r.prompt = prompt
}

// ReadLine reads a single line with history support.
//
// # Outputs
//
//   - string: The line read, trimmed
//   - error: io.EOF on Ctrl+D, or a terminal error
func (r *InteractiveInputReader) ReadLine() (string, error) {
	ti := textinput.New()
	ti.Prompt = r.prompt
	ti.Focus()
	ti.CharLimit = 4096
	ti.Width = 80

	m := inputModel{
		textInput:    ti,
		history:      r.history,
		historyIndex: -1,
	}

	p := tea.NewProgram(m, tea.WithOutput(os.Stderr))
	finalModel, err := p.Run()
	if err != nil {
		return "", err
	}

	result, ok := finalModel.(inputModel)
	if !ok {
		return "", fmt.Errorf("unexpected model type from bubbletea: %T", finalModel)
	}
	if result.cancelled && result.textInput.Value() == "" {
		return "", io.EOF
	}

	// The prompt and answer vanish with the program; echo them so the
	// transcript stays readable.
	input := strings.TrimSpace(result.textInput.Value())
	fmt.Fprintf(os.Stderr, "%s%s\n", r.prompt, input)

	if input != "" {
		r.addToHistory(input)
	}
	return input, nil
}

func (r *InteractiveInputReader) addToHistory(input string) {
	if len(r.history) > 0 && r.history[len(r.history)-1] == input {
		return
	}
	r.history = append(r.history, input)
	if len(r.history) > r.maxHistory {
		r.history = r.history[1:]
	}
}

// Init initializes the bubbletea model.
func (m inputModel) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles key events.
func (m inputModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.Type {
		case tea.KeyEnter:
			m.done = true
			return m, tea.Quit

		case tea.KeyCtrlC:
			m.textInput.SetValue("")
			m.done = true
			return m, tea.Quit

		case tea.KeyCtrlD:
			m.cancelled = true
			m.textInput.SetValue("")
			m.done = true
			return m, tea.Quit

		case tea.KeyUp:
			if len(m.history) == 0 {
				return m, nil
			}
			if m.historyIndex == -1 {
				m.currentInput = m.textInput.Value()
				m.historyIndex = len(m.history) - 1
			} else if m.historyIndex > 0 {
				m.historyIndex--
			}
			m.textInput.SetValue(m.history[m.historyIndex])
			m.textInput.CursorEnd()
			return m, nil

		case tea.KeyDown:
			if m.historyIndex == -1 {
				return m, nil
			}
			if m.historyIndex < len(m.history)-1 {
				m.historyIndex++
				m.textInput.SetValue(m.history[m.historyIndex])
			} else {
				m.historyIndex = -1
				m.textInput.SetValue(m.currentInput)
			}
			m.textInput.CursorEnd()
			return m, nil
		}
	}

	m.textInput, cmd = m.textInput.Update(msg)
	return m, cmd
}

// View renders the input line.
func (m inputModel) View() string {
	if m.done {
		return ""
	}
	return m.textInput.View()
}

// =============================================================================
// MockInputReader Implementation (for testing)
// =============================================================================

// MockInputReader returns predetermined inputs, then io.EOF.
//
// # Thread Safety
//
// Not thread-safe. Designed for single-threaded tests.
type MockInputReader struct {
	inputs  []string
	index   int
	prompts []string
}

// NewMockInputReader creates a MockInputReader returning inputs in order.
func NewMockInputReader(inputs []string) *MockInputReader {
	return &MockInputReader{inputs: inputs}
}

// SetPrompt records the prompt so tests can assert on it.
func (m *MockInputReader) SetPrompt(prompt string) {
	m.prompts = append(m.prompts, prompt)
}

// ReadLine returns the next predetermined input.
func (m *MockInputReader) ReadLine() (string, error) {
	if m.index >= len(m.inputs) {
		return "", io.EOF
	}
	line := m.inputs[m.index]
	m.index++
	return line, nil
}

// =============================================================================
// Selection
// =============================================================================

// newShellIO picks the menu reader and learning prompter for the shell.
// A real terminal gets history editing and the form prompter; anything
// else shares one line reader between menu and learning prompts.
func (a *app) newShellIO() (InputReader, prompt.Prompter) {
	if f, ok := a.in.(*os.File); ok && f == os.Stdin && ux.IsInteractive() {
		return NewInteractiveInputReader(50), a.newPrompter()
	}
	line := prompt.NewLine(a.in, a.out)
	if a.prompter != nil {
		return newLineInputReader(line), a.prompter
	}
	return newLineInputReader(line), line
}
