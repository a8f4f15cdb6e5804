// Package attendance records check-ins with the Zoho People attendance API.
package attendance
