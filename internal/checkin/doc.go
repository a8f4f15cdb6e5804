/*
Package checkin runs the morning check-in: record attendance at the current
location, then greet the team in chat.

	runner := checkin.NewRunner(attendanceSvc, chatSvc,
		checkin.WithLogger(logger),
		checkin.WithMessage("Good Morning"),
	)
	if err := runner.Run(ctx, checkin.Location{Latitude: 12.97, Longitude: 77.59}); err != nil {
		fmt.Println(checkin.FailureMessage)
	}
*/
package checkin
