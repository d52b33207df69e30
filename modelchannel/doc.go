// Package modelchannel provides a provider-agnostic streaming channel to a
// language model, wrapping the gollm library (github.com/teilomillet/gollm).
//
// The channel delivers a model response as an ordered sequence of events:
// text increments, tool-call fragments, and a terminating finish or error
// event. Tool-call fragments are partial: a single proposed call may arrive
// as several fragments bound to the same slot index, and the consumer is
// responsible for reassembling them (see the assistant package's
// CallAssembler).
//
// # Architecture
//
//   - Adapter: the interface every provider backend implements.
//   - Client: routes requests to a registered adapter and applies the
//     retry policy when establishing a stream.
//   - GollmAdapter: translates between channel types and gollm's API,
//     classifying provider failures into the channel error taxonomy.
//
// # Quick Start
//
//	adapter, _ := modelchannel.NewGollmAdapter("openai", os.Getenv("OPENAI_API_KEY"))
//	client := modelchannel.NewClient(modelchannel.WithAdapter("openai", adapter))
//
//	events, err := client.Stream(ctx, modelchannel.Request{
//	    Model:    "gpt-5.2-mini",
//	    Messages: []modelchannel.Message{modelchannel.UserMessage("Hello")},
//	})
//	for ev := range events {
//	    switch ev.Type {
//	    case modelchannel.EventTextDelta:
//	        fmt.Print(ev.Delta)
//	    case modelchannel.EventCallFragment:
//	        // feed ev.Fragment to an assembler
//	    }
//	}
//
// # Errors
//
// Failures map onto a small set of conditions: connection, authentication,
// rate limit, server, and generic provider failure. IsRetryable reports
// whether an error is safe
// to retry; the Client retries stream establishment according to its
// RetryPolicy and surfaces the final error otherwise.
package modelchannel
