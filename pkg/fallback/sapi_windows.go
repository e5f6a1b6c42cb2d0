//go:build windows

package fallback

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/go-ole/go-ole"
	"github.com/go-ole/go-ole/oleutil"
)

// SAPIEngine implements Engine using Windows SAPI5 via OLE.
type SAPIEngine struct {
	mu sync.Mutex
}

// NewSAPIEngine creates a new SAPI5 engine.
func NewSAPIEngine() *SAPIEngine {
	return &SAPIEngine{}
}

// NewSystemEngine returns the native speech engine for this platform.
func NewSystemEngine(command string) Engine {
	return NewSAPIEngine()
}

// Voices lists installed SAPI voices.
func (e *SAPIEngine) Voices(ctx context.Context) ([]SystemVoice, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := ole.CoInitialize(0); err != nil {
		// Already initialized
	} else {
		defer ole.CoUninitialize()
	}

	unknown, err := oleutil.CreateObject("SAPI.SpVoice")
	if err != nil {
		return nil, err
	}
	voice, err := unknown.QueryInterface(ole.IID_IDispatch)
	if err != nil {
		unknown.Release()
		return nil, err
	}
	defer voice.Release()

	tokensVar, err := oleutil.CallMethod(voice, "GetVoices")
	if err != nil {
		tokensVar, err = oleutil.GetProperty(voice, "Voices")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get voices collection: %w", err)
	}
	tokens := tokensVar.ToIDispatch()
	if tokens == nil {
		return nil, fmt.Errorf("voices collection is nil")
	}
	defer tokens.Release()

	var voices []SystemVoice
	_ = oleutil.ForEach(tokens, func(v *ole.VARIANT) error {
		if sv, ok := extractSystemVoice(v); ok {
			voices = append(voices, sv)
		}
		return nil
	})

	return voices, nil
}

func extractSystemVoice(v *ole.VARIANT) (SystemVoice, bool) {
	item := v.ToIDispatch()
	if item == nil {
		return SystemVoice{}, false
	}
	defer item.Release()

	idVar, idErr := oleutil.CallMethod(item, "GetId")
	descVar, descErr := oleutil.CallMethod(item, "GetDescription", int32(0))
	if idErr != nil || descErr != nil || idVar == nil || descVar == nil {
		return SystemVoice{}, false
	}

	var lang string
	if langVar, err := oleutil.CallMethod(item, "GetAttribute", "Language"); err == nil && langVar != nil {
		lang = langVar.ToString()
	}

	return SystemVoice{
		ID:       idVar.ToString(),
		Name:     descVar.ToString(),
		Language: lang,
	}, true
}

// Speak renders text to a wav file through a SpFileStream.
func (e *SAPIEngine) Speak(ctx context.Context, text string, v SystemVoice, rate, pitch float64, outputPath string) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := ole.CoInitialize(0); err != nil {
	} else {
		defer ole.CoUninitialize()
	}

	unknown, err := oleutil.CreateObject("SAPI.SpVoice")
	if err != nil {
		return "", fmt.Errorf("failed to create SAPI.SpVoice: %w", err)
	}
	voice, err := unknown.QueryInterface(ole.IID_IDispatch)
	if err != nil {
		unknown.Release()
		return "", fmt.Errorf("QueryInterface SpVoice failed: %w", err)
	}
	defer voice.Release()

	if v.ID != "" {
		setVoiceByID(voice, v.ID)
	}

	// SAPI rate runs -10..10 around a neutral 0.
	sapiRate := int((rate - 1.0) * 10)
	if sapiRate < -10 {
		sapiRate = -10
	} else if sapiRate > 10 {
		sapiRate = 10
	}
	_, _ = oleutil.PutProperty(voice, "Rate", sapiRate)

	unknownStream, err := oleutil.CreateObject("SAPI.SpFileStream")
	if err != nil {
		return "", fmt.Errorf("failed to create SAPI.SpFileStream: %w", err)
	}
	stream, err := unknownStream.QueryInterface(ole.IID_IDispatch)
	if err != nil {
		unknownStream.Release()
		return "", fmt.Errorf("QueryInterface SpFileStream failed: %w", err)
	}
	defer stream.Release()

	fullPath := outputPath
	if !strings.HasSuffix(strings.ToLower(fullPath), ".wav") {
		fullPath += ".wav"
	}
	if _, err = oleutil.CallMethod(stream, "Open", fullPath, 3, false); err != nil {
		return "", fmt.Errorf("stream Open failed: %w", err)
	}
	defer func() {
		_, _ = oleutil.CallMethod(stream, "Close")
	}()

	if _, err = oleutil.PutPropertyRef(voice, "AudioOutputStream", stream); err != nil {
		return "", fmt.Errorf("failed to set AudioOutputStream: %w", err)
	}

	speakText := text
	flags := 0
	if pitch != 1.0 {
		// Pitch has no property on SpVoice; it rides in as XML (-10..10).
		p := int((pitch - 1.0) * 10)
		if p < -10 {
			p = -10
		} else if p > 10 {
			p = 10
		}
		speakText = fmt.Sprintf("<pitch absmiddle='%d'>%s</pitch>", p, xmlEscape(text))
		flags = 1 // SVSFIsXML
	}

	if _, err = oleutil.CallMethod(voice, "Speak", speakText, flags); err != nil {
		return "", fmt.Errorf("Speak failed: %w", err)
	}

	return "wav", nil
}

func xmlEscape(s string) string {
	r := strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")
	return r.Replace(s)
}

func setVoiceByID(voice *ole.IDispatch, voiceID string) {
	tokensVar, err := oleutil.CallMethod(voice, "GetVoices", "", "")
	if err != nil {
		return
	}
	tokens := tokensVar.ToIDispatch()
	defer tokens.Release()

	_ = oleutil.ForEach(tokens, func(v *ole.VARIANT) error {
		item := v.ToIDispatch()
		if item == nil {
			return nil
		}
		defer item.Release()
		idVar, _ := oleutil.CallMethod(item, "GetId")
		if idVar != nil && idVar.ToString() == voiceID {
			_, _ = oleutil.PutPropertyRef(voice, "Voice", item)
		}
		return nil
	})
}
