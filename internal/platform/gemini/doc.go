// Package gemini provides an implementation of the generation.Generator
// interface that uses Google's Gemini API for generating questions from
// chunks of document text.
//
// This package is an infrastructure adapter, connecting the application's
// domain logic to Google's external Gemini AI service. It translates
// between the application's domain models and the Gemini API without
// exposing the details of the external service to the core application.
//
// Key responsibilities:
//
//  1. Prompt management: loading the prompt template from a file and
//     substituting chunk text and the requested question count into it,
//     capping inlined text at a configured character limit.
//
//  2. Retry handling: transient API failures and unparseable output are
//     retried with exponential backoff and jitter up to a configured
//     attempt limit; safety-filter blocks are permanent and returned
//     immediately.
//
//  3. Response processing: decoding structured JSON output into domain
//     Question objects, falling back to line-based extraction when the
//     structure is damaged, and dropping individual records that fail
//     domain validation.
package gemini
