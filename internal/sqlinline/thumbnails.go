package sqlinline

const QInsertThumbnail = `--sql 869c93ff-2d1c-4dd9-9385-6412279a9c57
insert into thumbnails (id, user_id, title, user_prompt, style, color_scheme, aspect_ratio, template_pack, is_generating, created_at, updated_at)
values (gen_random_uuid(), $1::uuid, $2, $3, $4, $5, $6, nullif($7, ''), true, now(), now())
returning id, user_id, title, user_prompt, style, color_scheme, aspect_ratio, coalesce(template_pack, ''), is_generating, coalesce(image_url, ''), created_at, updated_at;
`

const QSelectThumbnail = `--sql 239efe0f-e21c-4ff9-baba-0b5a2b54a0a6
select id, user_id, title, user_prompt, style, color_scheme, aspect_ratio, coalesce(template_pack, ''), is_generating, coalesce(image_url, ''), created_at, updated_at
from thumbnails
where id = $1::uuid
  and user_id = $2::uuid
limit 1;
`

const QListThumbnails = `--sql 27ea7dc2-6a7c-44d7-b422-6c20594144dd
select id, user_id, title, user_prompt, style, color_scheme, aspect_ratio, coalesce(template_pack, ''), is_generating, coalesce(image_url, ''), created_at, updated_at
from thumbnails
where user_id = $1::uuid
order by created_at;
`

const QSetThumbnailImage = `--sql ea1125f0-3706-4435-8aea-58458e97ee5f
update thumbnails
set image_url = $3,
    is_generating = false,
    updated_at = now()
where id = $1::uuid
  and user_id = $2::uuid
returning id, user_id, title, user_prompt, style, color_scheme, aspect_ratio, coalesce(template_pack, ''), is_generating, coalesce(image_url, ''), created_at, updated_at;
`

// QMarkThumbnailFailed flips the row out of its generating state without an
// image URL so a failed attempt never looks stuck in the gallery.
const QMarkThumbnailFailed = `--sql 234bbda9-14fc-41bf-9d66-a32fd12285fb
update thumbnails
set is_generating = false,
    updated_at = now()
where id = $1::uuid;
`

const QDeleteThumbnail = `--sql b4888353-d67f-4775-9c48-3615c567f289
delete from thumbnails
where id = $1::uuid
  and user_id = $2::uuid
returning id, coalesce(image_url, '');
`
