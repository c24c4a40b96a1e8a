package session

const (
	textHelp = "I help you keep track of medications.\n\n" +
		"/addmedication - add a medication plan\n" +
		"/addpatient - add a patient\n" +
		"/patients - manage your patients\n" +
		"/take - record an intake\n" +
		"/getall - status of every medication\n" +
		"/sharepatient - share a patient with another account\n" +
		"/timezone <Area/City> - set your timezone\n" +
		"/cancel - abort the current step"

	textDefault        = "Didn't quite get that. Try /addmedication or /help!"
	textCancelled      = "Cancelled."
	textFinishOrCancel = "Let's finish this step first, or /cancel it."
	textPickAnOption   = "Please pick one of the options above, or /cancel."
	textMenuExpired    = "That menu has expired. Try /help to start over."

	textAskPatientForMedication = "Which patient is this medication for?"
	textAskPatientName          = "What's the patient's name?"
	textAskMedicine             = "What's the name of the medicine?"
	textAskDosage               = "What's the dosage? (ie, 200mg, 2 pills)"
	textAskFrequency            = "How often? (ie, every 6 hours, 3 times a day,...)"
	textFrequencyReprompt       = "Didn't quite get that. Can you try again? (ie, every 6 hours, 3 times a day,...)"
	textMissingText             = "I need some text for that. Try again, or /cancel."

	textPickPatient        = "Pick a patient:"
	textPickPatientToTake  = "Who is taking a medication?"
	textPickPatientToShare = "Which patient do you want to share?"
	textNoPatients         = "You don't have any patients yet. Try /addpatient!"

	textAskShareAccount  = "Send me the Telegram User ID of the person you want to share %s with."
	textShareReprompt    = "That doesn't look like a Telegram User ID (should be a number)..."
	textShareSelf        = "That account already owns %s. Send another Telegram User ID, or /cancel."
	textShared           = "%s is now shared with %s."
	textAlreadyShared    = "%s was already shared with %s."
	textSharedWithYou    = "%s has been shared with you. Try /patients!"
	textPatientDeleted   = "%s has been deleted."
	textPatientUnshared  = "%s was removed from your patients."
	textPatientCreated   = "%s added."
	textPatientOps       = "What do you want to do with %s?"
	textPickMedToTake    = "Which medication is %s taking?"
	textPickMedForLog    = "Which of %s's medications do you want the log for?"
	textNoMedications    = "%s has no medications yet. Try /addmedication!"
	textMedicationAdded  = "Added %s (%s) %s for %s."
	textTaken            = "%s has just taken %s (%s)"
	textTakenNotice      = "%s just taken %s (%s). FYI!"
	textNeverTaken       = "%s hasn't been taken yet."
	textLogHeader        = "Last intakes of %s for %s:"
	textTimezoneSet      = "Timezone set to %s."
	textTimezoneCurrent  = "Your timezone is %s. Change it with /timezone <Area/City>."
	textTimezoneInvalid  = "That's not a timezone I know. Try something like Europe/Madrid or America/New_York."
	textNotFound         = "That patient or medication no longer exists."
	textForbidden        = "You don't have access to that patient."
	textTransientFailure = "Something went wrong on our side. Please try again in a moment."
)
