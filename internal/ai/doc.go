/*
Package ai forwards prompts to a hosted generation model.

A Dispatcher makes exactly one call per prompt and reports the outcome as
a Reply that is always safe to show: generated text on success, or an
"Ett fel uppstod: ..." message on failure. Errors and panics from the
backend never reach the caller.

Two Generator backends exist: GeminiSDK (google.golang.org/genai) and
GeminiREST (plain HTTP via resty). Both support text, an inline PNG/JPEG
image and a prior chat history.

	d := ai.NewDispatcher(gen, ai.Models{Text: "gemini-2.0-flash"}, tracer, metrics, log)
	reply := d.Dispatch(ctx, ai.KindText, ai.Request{Prompt: "Hej"})
*/
package ai
