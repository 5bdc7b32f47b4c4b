// Package disc talks to the physical optical drive: tray status, ejecting,
// an inter-process lock so only one pipeline reads the drive at a time, and a
// udev monitor that reports newly inserted audio CDs.
package disc
