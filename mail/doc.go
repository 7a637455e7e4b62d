// Package mail delivers one-time codes out of band.
//
// [Sender] is the delivery capability the engine calls. [PostmarkSender]
// posts to the Postmark email API, [WriterSender] prints messages to an
// io.Writer for local development, and [Outbox] records them in memory.
package mail
