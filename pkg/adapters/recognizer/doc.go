// Package recognizer provides intent recognizers that run in process.
//
// Keyword classifies utterances with YAML rules (keywords and regular expressions).
// QnA answers questions from a YAML knowledge base and reports the answer as an
// "answer" entity of the "qna" intent. Multi merges several recognizers.
// Both rule sets can be reloaded when their file changes (Watch).
package recognizer
