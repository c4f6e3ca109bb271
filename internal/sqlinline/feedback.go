package sqlinline

const QInsertFeedback = `--sql a22bfafa-4857-456c-8206-963565b04213
insert into feedback (id, user_id, rating, comment, created_at)
values (gen_random_uuid(), $1::uuid, $2, $3, now())
returning id, user_id, rating, comment, created_at;
`
