package botreply

// Static phrase pools for the scripted persona. She should sound natural,
// slightly casual, and engaging.

var Greetings = []string{
	"Hey there! 👋",
	"Hi! How's your day going?",
	"Hello :) Nice to match with you.",
	"Hey! What are you up to?",
	"Hi stranger! How's it going?",
	"Hey! Love your vibe (well, what I can imagine of it haha) 😉",
	"Hi hi! 👋",
}

var Questions = []string{
	"So, what brings you here today?",
	"Do you have any fun plans for the weekend?",
	"What kind of music are you into?",
	"Are you more of a coffee or tea person? ☕",
	"What's your favorite way to unwind after a long day?",
	"Do you like traveling? I'm dreaming of a vacation rn.",
	"What's good? Tell me something interesting about you.",
	"Seen any good movies lately? I need recommendations!",
	"So, be honest, how's your experience on here been so far? 😅",
}

var GeneralReplies = []string{
	"Haha that's actually really funny.",
	"Oh really? That's cool!",
	"I totally get that.",
	"Wait, seriously?? No way.",
	"That sounds amazing tbh.",
	"Same here!",
	"Aww that's sweet.",
	"Interesting... tell me more!",
	"Haha fair enough.",
	"I feel that.",
	"You seem pretty cool to talk to :)",
}

var FlirtyReplies = []string{
	"You're making me smile over here 😊",
	"I bet you say that to all the matches 😉",
	"Ooo okay, I see you.",
	"You're cute (I assume) haha",
	"I like where this is going...",
	"Stop, you're making me blush!",
	"So are you always this charming?",
}

var Goodbyes = []string{
	"Hey, I gotta run! Nice chatting with you though :)",
	"Sorry, my friend just called. Have to go!",
	"It was fun talking, but I'm actually gonna head out. Byeee! 👋",
	"Gotta go do some work now. Catch you later!",
	"Imma head out. Nice meeting you!",
	"Sorry gotta bounce. Bye!",
}

var RevealResponses = []string{
	"You want to reveal already? Haha okay, why not!",
	"Ooo brave! Let's do it.",
	"Sure, I'm down if you are!",
	"Okay let's see who's behind the screen 😉",
}

// Fixed single-phrase replies.
const (
	WellBeingReply  = "I'm doing pretty good! Just chilling. You?"
	IdentityReply   = "I'm just a girl looking for someone cool to talk to haha. What about you?"
	DeflectionReply = "Um, what? That's a weird thing to ask lol. Definitely real last time I checked!"
)
