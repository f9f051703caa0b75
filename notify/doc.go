// Package notify delivers verification codes to users. The engine only
// sees the Sender interface; SMTPSender is the production transport and
// ChannelSender exists for tests that need to read the code back out.
package notify
