package cmd

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ardnew/psheet/lang"
)

// Tokens prints the token stream of a sheet.
type Tokens struct {
	Input `embed:""`

	JSON   bool `help:"Print tokens as a JSON array"           short:"j"`
	Trivia bool `help:"Include whitespace and comment tokens" short:"t"`
}

// token is the JSON form of a [lang.Token].
type token struct {
	Type   string `json:"type"`
	Data   string `json:"data"`
	Raw    string `json:"raw"`
	Row    int    `json:"row"`
	Column int    `json:"column"`
}

// Run executes the tokens command.
func (t *Tokens) Run(ctx context.Context) error {
	text, err := t.Read(ctx)
	if err != nil {
		return err
	}

	out := streamsFrom(ctx).out

	var toks []lang.Token

	for _, tok := range lang.Tokenize(text) {
		if t.Trivia || !tok.Type.IsTrivia() {
			toks = append(toks, tok)
		}
	}

	if !t.JSON {
		for _, tok := range toks {
			if _, err := fmt.Fprintln(out, tok); err != nil {
				return ErrWriteOutput.Wrap(err)
			}
		}

		return nil
	}

	list := make([]token, len(toks))
	for i, tok := range toks {
		list[i] = token{
			Type:   tok.Type.String(),
			Data:   tok.Data,
			Raw:    tok.RawData,
			Row:    tok.Row,
			Column: tok.Column,
		}
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")

	if err := enc.Encode(list); err != nil {
		return ErrMarshal.Wrap(err)
	}

	return nil
}
