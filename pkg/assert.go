package pkg

import "coderoom"

func AssertNoError(err error) {
	if err != nil {
		coderoom.Logger.Error().Err(err).Msg("Error occurred that should not have occurred.")
		panic(err)
	}
}
