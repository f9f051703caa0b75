// Package otp generates and verifies time-windowed numeric one-time
// codes. A code is valid only during the window it was generated in;
// there is no adjacent-window tolerance, so a code dies the moment the
// counter rolls over.
package otp
